package pipeline

import (
	"bytes"
	"context"
	"io/fs"
	"os"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
)

// Drift reasons
const (
	DriftMissing  = "missing"
	DriftModified = "modified"
)

// Drift is a generated artifact whose file differs from a fresh render.
type Drift struct {
	Phase  string `json:"phase" yaml:"phase"`
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
	Want   []byte `json:"-" yaml:"-"`
	Got    []byte `json:"-" yaml:"-"`
}

// Check renders every emitting phase in memory and compares the generated
// artifacts with the files on disk. Scaffolds belong to the developer and
// are not compared. Nothing is written.
func (o *Orchestrator) Check(ctx context.Context) ([]Drift, error) {
	var drift []Drift
	compared := 0

	for _, p := range Phases {
		if !p.Emits() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rendered, err := p.Render(o.env)
		if err != nil {
			return nil, &PhaseError{Phase: p.Name, Err: err}
		}
		for _, f := range rendered.Sorted() {
			if f.Kind == emit.Scaffold {
				continue
			}
			compared++

			path := o.env.Paths.Resolve(f.Location)
			got, err := os.ReadFile(path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				drift = append(drift, Drift{Phase: p.Name, Path: o.env.Paths.Rel(path), Reason: DriftMissing, Want: f.Content})
			case err != nil:
				return nil, errors.Wrapf(err, "failed to read %s", path)
			case !bytes.Equal(got, f.Content):
				drift = append(drift, Drift{Phase: p.Name, Path: o.env.Paths.Rel(path), Reason: DriftModified, Want: f.Content, Got: got})
			}
		}
	}

	o.log.Infow("Check complete", logger.FieldCount, compared, "drift", len(drift))
	return drift, nil
}
