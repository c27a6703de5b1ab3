package pipeline

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/buildamp/logger"
)

// CLIReporter prints phase progress to the terminal.
type CLIReporter struct {
	verbosity int
}

// NewCLIReporter creates a terminal reporter. Verbosity 1 lists written
// files, 2 also lists skipped scaffolds and 3 adds phase timings.
func NewCLIReporter(verbosity int) *CLIReporter {
	return &CLIReporter{verbosity: verbosity}
}

// PhaseStarted announces a phase.
func (r *CLIReporter) PhaseStarted(name string) {
	pterm.Printf("🔄 %s\n", pterm.LightCyan(name))
}

// PhaseFinished prints counts, diagnostics and notices for a phase.
func (r *CLIReporter) PhaseFinished(res *PhaseResult) {
	pterm.Printf("✅ %s: %s models, %s written, %d unchanged\n",
		res.Phase,
		pterm.Green(fmt.Sprintf("%d", res.ModelsProcessed)),
		pterm.Green(fmt.Sprintf("%d", res.ArtifactsWritten)),
		res.Unchanged)
	if logger.ShouldLogTrace(r.verbosity) {
		pterm.Printf("   took %s\n", res.Duration)
	}

	if r.verbosity >= 1 {
		for _, p := range res.OutputPaths {
			pterm.Printf("   %s\n", pterm.Gray(p))
		}
	}
	for _, s := range res.Skipped {
		if s.Decision == SkipPrerequisiteMissing || s.Reason != "" || r.verbosity >= 2 {
			pterm.Warning.Printf("%s skipped (%s) %s\n", s.Path, s.Decision, s.Reason)
		}
	}
	for _, d := range res.Diagnostics {
		pterm.Warning.Println(d.String())
	}
	for _, n := range res.Notices {
		pterm.Info.Println(n)
	}
}

// PhaseFailed prints a phase failure.
func (r *CLIReporter) PhaseFailed(name string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", name, err)
}
