package pipeline

import (
	"go.uber.org/zap"

	"github.com/teranos/buildamp/classify"
	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/extract"
	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/scaffold"
	"github.com/teranos/buildamp/wasm"
)

// Env is everything a phase reads or writes through.
type Env struct {
	Paths  config.Paths
	Config *config.Config
	Cache  *extract.Cache
	Writer *Writer
	Guard  *scaffold.Guard
	// Wasm is nil until the wasm phase first needs it
	Wasm *wasm.Builder
	Log  *zap.SugaredLogger
}

// NewEnv builds an Env with a fresh parse cache.
func NewEnv(paths config.Paths, cfg *config.Config) (*Env, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cache, err := extract.NewCache(cfg.Models.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Env{
		Paths:  paths,
		Config: cfg,
		Cache:  cache,
		Writer: NewWriter(),
		Guard:  scaffold.New(),
		Log:    logger.ComponentLogger("pipeline"),
	}, nil
}

// Models extracts and classifies one domain. A missing domain has no models.
func (e *Env) Models(domain string) ([]model.Classified, error) {
	structs, err := extract.Dir(e.Paths.Domain(domain), extract.WithCache(e.Cache))
	if err != nil {
		return nil, err
	}
	return classify.All(structs), nil
}

func (e *Env) builder() *wasm.Builder {
	if e.Wasm == nil {
		e.Wasm = wasm.New(e.Config.Wasm, e.Paths.Crate)
	}
	return e.Wasm
}
