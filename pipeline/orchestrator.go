// Package pipeline runs the generation phases in their fixed order, writes
// what they render, and records each run.
package pipeline

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/buildamp/db"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/extract"
	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/scaffold"
)

// SkipPrerequisiteMissing is the Skip decision for phases whose required
// artifacts do not exist yet.
const SkipPrerequisiteMissing = "prerequisite-missing"

// Recorder persists run history. db.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, phases []string) (string, error)
	RecordPhase(ctx context.Context, runID string, rec db.PhaseRecord) error
	FinishRun(ctx context.Context, runID string, success bool) error
	SaveContracts(ctx context.Context, runID string, c db.Contracts) error
}

// Reporter is told about phase progress.
type Reporter interface {
	PhaseStarted(name string)
	PhaseFinished(res *PhaseResult)
	PhaseFailed(name string, err error)
}

// Orchestrator runs phases against one Env.
type Orchestrator struct {
	env      *Env
	recorder Recorder
	reporter Reporter
	log      *zap.SugaredLogger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder records every run.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithReporter reports phase progress.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// New creates an Orchestrator.
func New(env *Env, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		env:      env,
		reporter: nopReporter{},
		log:      logger.ComponentLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Env returns the environment phases run against.
func (o *Orchestrator) Env() *Env {
	return o.env
}

// Run executes the selected phases, or all of them when selection is empty.
// The selection is validated before anything runs. The first failing phase
// stops the run; artifacts written by earlier phases stay on disk.
func (o *Orchestrator) Run(ctx context.Context, selection []string) (*Summary, error) {
	phases, err := Select(selection, o.env.Config.Wasm.Enabled)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.Name
	}

	start := time.Now()
	sum := &Summary{Full: len(selection) == 0}
	sum.RunID = o.begin(ctx, names)
	log := o.log.With(logger.FieldRunID, sum.RunID)
	log.Infow("Run started", "phases", names)

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			o.finish(ctx, sum.RunID, false)
			sum.Duration = time.Since(start)
			return sum, err
		}

		o.reporter.PhaseStarted(p.Name)
		phaseStart := time.Now()
		res, err := o.runPhase(ctx, p)
		res.Phase = p.Name
		res.Duration = time.Since(phaseStart)
		res.Success = err == nil
		res.Err = err
		sum.Results = append(sum.Results, res)
		o.record(ctx, sum.RunID, res)

		if err != nil {
			log.Errorw("Phase failed", logger.FieldPhase, p.Name, logger.FieldError, err)
			o.reporter.PhaseFailed(p.Name, err)
			o.finish(ctx, sum.RunID, false)
			sum.Duration = time.Since(start)
			return sum, &PhaseError{Phase: p.Name, Err: err}
		}

		log.Infow("Phase complete",
			logger.FieldPhase, p.Name,
			logger.FieldModels, res.ModelsProcessed,
			logger.FieldArtifacts, res.ArtifactsWritten,
			logger.FieldSkipped, len(res.Skipped),
			logger.FieldDurationMS, res.Duration.Milliseconds())
		o.reporter.PhaseFinished(res)
	}

	o.finish(ctx, sum.RunID, true)
	if sum.Full {
		o.saveContracts(ctx, sum.RunID)
	}
	sum.Duration = time.Since(start)
	return sum, nil
}

func (o *Orchestrator) runPhase(ctx context.Context, p Phase) (*PhaseResult, error) {
	if p.Exec != nil {
		res, err := p.Exec(ctx, o.env)
		if res == nil {
			res = &PhaseResult{}
		}
		return res, err
	}

	res := &PhaseResult{}
	for _, req := range p.Requires {
		path := o.env.Paths.Resolve(req)
		if _, err := os.Stat(path); err != nil {
			o.log.Warnw("Skipping phase until its prerequisite exists",
				logger.FieldPhase, p.Name,
				logger.FieldPath, path)
			res.Skipped = append(res.Skipped, Skip{
				Path:     o.env.Paths.Rel(path),
				Decision: SkipPrerequisiteMissing,
				Reason:   "run the database phase first",
			})
			return res, nil
		}
	}

	rendered, err := p.Render(o.env)
	if err != nil {
		return res, err
	}
	res.ModelsProcessed = rendered.Models
	res.Diagnostics = rendered.Diagnostics
	for _, d := range rendered.Diagnostics {
		if d.Message != "" {
			o.log.Warnw("Model rejected",
				logger.FieldPhase, p.Name,
				logger.FieldModel, d.Model,
				logger.FieldReason, d.Message)
			continue
		}
		o.log.Warnw("Lossy type mapping",
			logger.FieldPhase, p.Name,
			logger.FieldModel, d.Model,
			logger.FieldField, d.Field,
			logger.FieldRawType, d.RawType)
	}

	for _, f := range rendered.Sorted() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := o.write(f, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (o *Orchestrator) write(f emit.File, res *PhaseResult) error {
	paths := o.env.Paths
	path := paths.Resolve(f.Location)

	if f.Kind == emit.Scaffold {
		deps := make([]string, len(f.DependsOn))
		for i, d := range f.DependsOn {
			deps[i] = paths.Resolve(d)
		}
		decision, notices, err := o.env.Guard.Apply(path, f.Content, deps)
		if err != nil {
			return err
		}
		for _, n := range notices {
			res.Notices = append(res.Notices, n.String())
		}
		switch decision {
		case scaffold.Create:
			res.ArtifactsWritten++
			res.OutputPaths = append(res.OutputPaths, paths.Rel(path))
		case scaffold.SkipPermissionDenied:
			o.log.Warnw("Scaffold directory refuses writes", logger.FieldPath, path)
			res.Skipped = append(res.Skipped, Skip{
				Path:     paths.Rel(path),
				Decision: decision.String(),
				Reason:   "permission denied",
			})
		default:
			res.Skipped = append(res.Skipped, Skip{Path: paths.Rel(path), Decision: decision.String()})
		}
		return nil
	}

	changed, err := o.env.Writer.Write(path, f.Content, f.Executable)
	if err != nil {
		return err
	}
	if changed {
		res.ArtifactsWritten++
		res.OutputPaths = append(res.OutputPaths, paths.Rel(path))
	} else {
		res.Unchanged++
	}
	return nil
}

// Recording failures are logged and never fail a run.

func (o *Orchestrator) begin(ctx context.Context, phases []string) string {
	if o.recorder == nil {
		return ""
	}
	id, err := o.recorder.BeginRun(ctx, phases)
	if err != nil {
		o.log.Warnw("Run history unavailable", logger.FieldError, err)
		return ""
	}
	return id
}

func (o *Orchestrator) record(ctx context.Context, runID string, res *PhaseResult) {
	if o.recorder == nil || runID == "" {
		return
	}
	rec := db.PhaseRecord{
		Phase:       res.Phase,
		Success:     res.Success,
		Models:      res.ModelsProcessed,
		Artifacts:   res.ArtifactsWritten,
		Skipped:     len(res.Skipped),
		Diagnostics: len(res.Diagnostics),
		Duration:    res.Duration,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := o.recorder.RecordPhase(ctx, runID, rec); err != nil {
		o.log.Warnw("Failed to record phase", logger.FieldPhase, res.Phase, logger.FieldError, err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, runID string, success bool) {
	if o.recorder == nil || runID == "" {
		return
	}
	if err := o.recorder.FinishRun(ctx, runID, success); err != nil {
		o.log.Warnw("Failed to record run end", logger.FieldRunID, runID, logger.FieldError, err)
	}
}

func (o *Orchestrator) saveContracts(ctx context.Context, runID string) {
	if o.recorder == nil || runID == "" {
		return
	}
	c, err := CurrentContracts(o.env.Paths.Models)
	if err == nil {
		err = o.recorder.SaveContracts(ctx, runID, c)
	}
	if err != nil {
		o.log.Warnw("Failed to record model contracts", logger.FieldError, err)
	}
}

// CurrentContracts hashes every model source file under dir.
func CurrentContracts(dir string) (db.Contracts, error) {
	files, err := extract.SourceFiles(dir)
	if err != nil {
		return db.Contracts{}, err
	}
	return db.HashFiles(dir, files)
}

type nopReporter struct{}

func (nopReporter) PhaseStarted(string)        {}
func (nopReporter) PhaseFinished(*PhaseResult) {}
func (nopReporter) PhaseFailed(string, error)  {}
