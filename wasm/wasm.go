// Package wasm compiles the model crate to WebAssembly with cargo and
// wasm-pack, and reports whether the build is older than the models.
package wasm

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
)

// Status reasons
const (
	ReasonNeverBuilt = "never_built"
	ReasonNoModels   = "no_models"
	ReasonStale      = "stale"
	ReasonCurrent    = "current"
)

// packTargets maps configured targets to wasm-pack's names
var packTargets = map[string]string{
	"web":     "web",
	"node":    "nodejs",
	"bundler": "bundler",
}

// ValidTarget reports whether target is one of config.WasmTargets.
func ValidTarget(target string) bool {
	return slices.Contains(config.WasmTargets, target)
}

// OutputDir is where wasm-pack writes a target's package.
func OutputDir(crate, target string) string {
	return filepath.Join(crate, "pkg-"+target)
}

// Runner executes one external command in dir and returns its combined output.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Builder runs the two build steps for one target.
type Builder struct {
	Crate  string
	Target string
	// Cargo and Pack are command lines; quoting follows the shell
	Cargo   string
	Pack    string
	Release bool
	Run     Runner
	log     *zap.SugaredLogger
}

// New builds a release Builder from configuration.
func New(cfg config.WasmConfig, crate string) *Builder {
	return &Builder{
		Crate:   crate,
		Target:  cfg.Target,
		Cargo:   cfg.Cargo,
		Pack:    cfg.Pack,
		Release: true,
		Run:     execRunner,
		log:     logger.ComponentLogger("wasm"),
	}
}

// Result describes a finished build.
type Result struct {
	Target string
	OutDir string
	Output string
}

// Commands returns the cargo and wasm-pack argument vectors.
func (b *Builder) Commands() (cargo, pack []string, err error) {
	if !ValidTarget(b.Target) {
		return nil, nil, errors.WithHintf(
			errors.Newf("invalid wasm target %q", b.Target),
			"use one of: %s", strings.Join(config.WasmTargets, ", "))
	}

	cargo, err = shellquote.Split(b.Cargo)
	if err != nil || len(cargo) == 0 {
		return nil, nil, errors.Newf("invalid cargo command %q", b.Cargo)
	}
	pack, err = shellquote.Split(b.Pack)
	if err != nil || len(pack) == 0 {
		return nil, nil, errors.Newf("invalid wasm-pack command %q", b.Pack)
	}

	mode := "--release"
	if !b.Release {
		mode = "--dev"
	}
	pack = append(pack, mode, "--target", packTargets[b.Target], "--out-dir", OutputDir(b.Crate, b.Target))
	return cargo, pack, nil
}

// Detect reports whether the wasm-pack binary answers --version.
func (b *Builder) Detect(ctx context.Context) bool {
	pack, err := shellquote.Split(b.Pack)
	if err != nil || len(pack) == 0 {
		return false
	}
	_, err = b.Run(ctx, b.Crate, pack[0], "--version")
	return err == nil
}

// Build runs cargo, then wasm-pack.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	cargo, pack, err := b.Commands()
	if err != nil {
		return nil, err
	}
	if !b.Detect(ctx) {
		return nil, errors.WithHint(
			errors.New("wasm-pack is not installed"),
			"install it with `cargo install wasm-pack`")
	}

	var out strings.Builder
	for _, argv := range [][]string{cargo, pack} {
		b.log.Infow("Running build step", "command", shellquote.Join(argv...), logger.FieldDir, b.Crate)
		output, err := b.Run(ctx, b.Crate, argv[0], argv[1:]...)
		out.Write(output)
		if err != nil {
			return nil, errors.WithDetail(
				errors.Wrapf(err, "%s failed", argv[0]),
				strings.TrimSpace(string(output)))
		}
	}

	return &Result{Target: b.Target, OutDir: OutputDir(b.Crate, b.Target), Output: out.String()}, nil
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Lib struct {
		Name string `toml:"name"`
	} `toml:"lib"`
}

// PackageName reads the crate name from Cargo.toml; [lib] name wins.
func PackageName(crate string) (string, error) {
	var m cargoManifest
	path := filepath.Join(crate, "Cargo.toml")
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return "", errors.Wrapf(err, "failed to parse %s", path)
	}
	name := m.Lib.Name
	if name == "" {
		name = m.Package.Name
	}
	if name == "" {
		return "", errors.Newf("%s declares no package name", path)
	}
	return name, nil
}

// ArtifactPath is the .wasm file wasm-pack produces for target.
func ArtifactPath(crate, target string) (string, error) {
	name, err := PackageName(crate)
	if err != nil {
		return "", err
	}
	return filepath.Join(OutputDir(crate, target), strings.ReplaceAll(name, "-", "_")+"_bg.wasm"), nil
}

// Status compares a target's build with the model sources.
type Status struct {
	Target       string     `json:"target" yaml:"target"`
	NeedsRebuild bool       `json:"needs_rebuild" yaml:"needs_rebuild"`
	Reason       string     `json:"reason" yaml:"reason"`
	ModelMtime   *time.Time `json:"model_mtime,omitempty" yaml:"model_mtime,omitempty"`
	WasmMtime    *time.Time `json:"wasm_mtime,omitempty" yaml:"wasm_mtime,omitempty"`
}

// CheckStatus reports whether target needs rebuilding for the models under modelsDir.
func CheckStatus(modelsDir, crate, target string) Status {
	st := Status{Target: target}
	st.ModelMtime = NewestModel(modelsDir)

	if artifact, err := ArtifactPath(crate, target); err == nil {
		if info, err := os.Stat(artifact); err == nil {
			t := info.ModTime()
			st.WasmMtime = &t
		}
	}

	switch {
	case st.WasmMtime == nil:
		st.NeedsRebuild, st.Reason = true, ReasonNeverBuilt
	case st.ModelMtime == nil:
		st.Reason = ReasonNoModels
	case st.ModelMtime.After(*st.WasmMtime):
		st.NeedsRebuild, st.Reason = true, ReasonStale
	default:
		st.Reason = ReasonCurrent
	}
	return st
}

// NewestModel returns the latest mtime of any .rs file under dir, or nil.
func NewestModel(dir string) *time.Time {
	var newest *time.Time
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if t := info.ModTime(); newest == nil || t.After(*newest) {
			newest = &t
		}
		return nil
	})
	return newest
}
