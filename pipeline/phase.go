package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/emit/admin"
	"github.com/teranos/buildamp/emit/events"
	"github.com/teranos/buildamp/emit/handlers"
	"github.com/teranos/buildamp/emit/kv"
	"github.com/teranos/buildamp/emit/persistence"
	"github.com/teranos/buildamp/emit/routes"
	"github.com/teranos/buildamp/emit/shared"
	"github.com/teranos/buildamp/emit/sse"
	"github.com/teranos/buildamp/emit/storage"
	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/typemap"
)

// Phase is one named step of a run.
type Phase struct {
	Name    string
	Aliases []string
	// Optional phases only run when selected by name or enabled in config
	Optional bool
	// Requires lists artifacts that must exist before the phase writes
	// anything; when one is missing the phase is skipped for the run
	Requires []emit.Location
	// Render produces the phase's artifacts in memory
	Render func(env *Env) (*emit.Result, error)
	// Exec replaces Render for phases that run external tools
	Exec func(ctx context.Context, env *Env) (*PhaseResult, error)
}

// Emits reports whether the phase produces artifacts.
func (p Phase) Emits() bool {
	return p.Render != nil
}

// Skip records an artifact that was not written.
type Skip struct {
	Path string `json:"path" yaml:"path"`
	// Decision is a scaffold.Decision name, or "prerequisite-missing"
	Decision string `json:"decision" yaml:"decision"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// PhaseResult is the outcome of one phase.
type PhaseResult struct {
	Phase            string               `json:"phase" yaml:"phase"`
	Success          bool                 `json:"success" yaml:"success"`
	ModelsProcessed  int                  `json:"models_processed" yaml:"models_processed"`
	ArtifactsWritten int                  `json:"artifacts_written" yaml:"artifacts_written"`
	Unchanged        int                  `json:"unchanged" yaml:"unchanged"`
	OutputPaths      []string             `json:"output_paths,omitempty" yaml:"output_paths,omitempty"`
	Skipped          []Skip               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Notices          []string             `json:"notices,omitempty" yaml:"notices,omitempty"`
	Diagnostics      []typemap.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Duration         time.Duration        `json:"duration" yaml:"duration"`
	Err              error                `json:"-" yaml:"-"`
}

// PhaseError names the phase that stopped a run.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, errors.ErrPhaseFailed) match any phase failure.
func (e *PhaseError) Is(target error) bool {
	return target == errors.ErrPhaseFailed
}

// emitter renders one domain through gen.
func emitter(domain string, gen func([]model.Classified) *emit.Result) func(*Env) (*emit.Result, error) {
	return func(env *Env) (*emit.Result, error) {
		models, err := env.Models(domain)
		if err != nil {
			return nil, err
		}
		return gen(models), nil
	}
}

// renderEventStream emits the SSE module and the eventing module together.
func renderEventStream(env *Env) (*emit.Result, error) {
	res, err := emitter(sse.Domain, sse.Generate)(env)
	if err != nil {
		return nil, err
	}
	ev, err := emitter(events.Domain, events.Generate)(env)
	if err != nil {
		return nil, err
	}
	res.Merge(ev)
	return res, nil
}

// Phases is the fixed run order.
var Phases = []Phase{
	{Name: "database", Aliases: []string{"db", "persistence"}, Render: emitter(persistence.Domain, persistence.Generate)},
	{Name: "api", Aliases: []string{"routes"}, Render: emitter(routes.Domain, routes.Generate)},
	{Name: "storage", Aliases: []string{"browser"}, Render: emitter(storage.Domain, storage.Generate)},
	{Name: "kv", Aliases: []string{"cache"}, Render: emitter(kv.Domain, kv.Generate)},
	{Name: "sse", Aliases: []string{"events"}, Render: renderEventStream},
	{Name: "shared", Aliases: []string{"modules"}, Render: emitter(shared.Domain, shared.Generate)},
	{
		Name:     "handlers",
		Aliases:  []string{"elm"},
		Requires: []emit.Location{handlers.Prerequisite},
		Render:   emitter(routes.Domain, handlers.Generate),
	},
	{Name: "admin", Aliases: []string{"ui"}, Render: emitter(admin.Domain, admin.Generate)},
	{Name: "wasm", Aliases: []string{"build"}, Optional: true, Exec: buildWasm},
}

// Names lists phase names in run order.
func Names() []string {
	names := make([]string, len(Phases))
	for i, p := range Phases {
		names[i] = p.Name
	}
	return names
}

// Lookup resolves a phase name or alias.
func Lookup(name string) (Phase, bool) {
	for _, p := range Phases {
		if p.Name == name {
			return p, true
		}
		for _, a := range p.Aliases {
			if a == name {
				return p, true
			}
		}
	}
	return Phase{}, false
}

// Select resolves names into phases in run order. No names selects every
// phase, with optional phases only when includeOptional is set. An unknown
// name fails the whole selection.
func Select(names []string, includeOptional bool) ([]Phase, error) {
	if len(names) == 0 {
		var out []Phase
		for _, p := range Phases {
			if !p.Optional || includeOptional {
				out = append(out, p)
			}
		}
		return out, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		p, ok := Lookup(n)
		if !ok {
			return nil, errors.NewUnknownPhaseError(n, Names())
		}
		wanted[p.Name] = true
	}

	var out []Phase
	for _, p := range Phases {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}
