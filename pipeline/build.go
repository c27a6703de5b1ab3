package pipeline

import (
	"context"

	"github.com/teranos/buildamp/logger"
)

// buildWasm compiles the model crate for the configured target.
func buildWasm(ctx context.Context, env *Env) (*PhaseResult, error) {
	b := env.builder()
	env.Log.Infow("Building wasm package", "target", b.Target, logger.FieldDir, b.Crate)

	built, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &PhaseResult{
		ArtifactsWritten: 1,
		OutputPaths:      []string{env.Paths.Rel(built.OutDir)},
	}, nil
}
