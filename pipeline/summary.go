package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
)

// Summary aggregates the results of one run.
type Summary struct {
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	// Full is set when every phase was selected
	Full     bool           `json:"full" yaml:"full"`
	Results  []*PhaseResult `json:"results" yaml:"results"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
}

// Success reports whether every phase that ran succeeded.
func (s *Summary) Success() bool {
	for _, r := range s.Results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Artifacts counts files written across phases.
func (s *Summary) Artifacts() int {
	n := 0
	for _, r := range s.Results {
		n += r.ArtifactsWritten
	}
	return n
}

// Unchanged counts files that already had the rendered content.
func (s *Summary) Unchanged() int {
	n := 0
	for _, r := range s.Results {
		n += r.Unchanged
	}
	return n
}

// Skipped counts artifacts that were not written.
func (s *Summary) Skipped() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Skipped)
	}
	return n
}

// Diagnostics counts lossy type mappings.
func (s *Summary) Diagnostics() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Diagnostics)
	}
	return n
}

// Notices collects scaffold staleness notices in phase order.
func (s *Summary) Notices() []string {
	var out []string
	for _, r := range s.Results {
		out = append(out, r.Notices...)
	}
	return out
}

// Table renders the per-phase counts.
func (s *Summary) Table() (string, error) {
	data := pterm.TableData{{"Phase", "Models", "Written", "Unchanged", "Skipped", "Diagnostics", "Time"}}
	for _, r := range s.Results {
		status := r.Phase
		if !r.Success {
			status = pterm.Red(r.Phase + " (failed)")
		}
		data = append(data, []string{
			status,
			strconv.Itoa(r.ModelsProcessed),
			strconv.Itoa(r.ArtifactsWritten),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(len(r.Skipped)),
			strconv.Itoa(len(r.Diagnostics)),
			r.Duration.Round(time.Millisecond).String(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// Line is a one-line description of the run.
func (s *Summary) Line() string {
	return fmt.Sprintf("%d phases, %d written, %d unchanged, %d skipped, %d diagnostics in %s",
		len(s.Results), s.Artifacts(), s.Unchanged(), s.Skipped(), s.Diagnostics(),
		s.Duration.Round(time.Millisecond))
}
