package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/db"
	"github.com/teranos/buildamp/wasm"
)

// Model status reasons
const (
	ModelsClean          = "clean"
	ModelsChanged        = "changed"
	ModelsNeverGenerated = "never_generated"
	// ModelsUntracked means run history is disabled
	ModelsUntracked = "untracked"
)

// StateReader is the read side of the state store. db.Store implements it.
type StateReader interface {
	LastRun(ctx context.Context) (*db.RunRecord, error)
	LoadContracts(ctx context.Context) (db.Contracts, error)
}

// ModelStatus compares model sources with the last full run.
type ModelStatus struct {
	Dirty   bool            `json:"dirty" yaml:"dirty"`
	Reason  string          `json:"reason" yaml:"reason"`
	Details db.ContractDiff `json:"details" yaml:"details"`
}

// Status is what `buildamp status` reports.
type Status struct {
	Project     string        `json:"project,omitempty" yaml:"project,omitempty"`
	Models      ModelStatus   `json:"models" yaml:"models"`
	LastRun     *db.RunRecord `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	Wasm        []wasm.Status `json:"wasm,omitempty" yaml:"wasm,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// BuildStatus inspects env against the recorded state. state may be nil
// when run history is disabled.
func BuildStatus(ctx context.Context, env *Env, state StateReader) (*Status, error) {
	st := &Status{Project: env.Config.Project}

	if state == nil {
		st.Models.Reason = ModelsUntracked
	} else {
		run, err := state.LastRun(ctx)
		if err != nil {
			return nil, err
		}
		st.LastRun = run

		recorded, err := state.LoadContracts(ctx)
		if err != nil {
			return nil, err
		}
		current, err := CurrentContracts(env.Paths.Models)
		if err != nil {
			return nil, err
		}

		switch diff := db.Compare(recorded, current); {
		case recorded.Master == "":
			st.Models = ModelStatus{Dirty: true, Reason: ModelsNeverGenerated, Details: diff}
		case !diff.Empty():
			st.Models = ModelStatus{Dirty: true, Reason: ModelsChanged, Details: diff}
		default:
			st.Models.Reason = ModelsClean
		}
	}
	if st.Models.Dirty {
		st.Suggestions = append(st.Suggestions, "buildamp gen")
	}

	if env.Config.Wasm.Enabled || hasCrate(env.Paths.Crate) {
		for _, target := range config.WasmTargets {
			ws := wasm.CheckStatus(env.Paths.Models, env.Paths.Crate, target)
			st.Wasm = append(st.Wasm, ws)
			if ws.NeedsRebuild && target == env.Config.Wasm.Target {
				st.Suggestions = append(st.Suggestions, "buildamp wasm")
			}
		}
	}
	return st, nil
}

func hasCrate(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "Cargo.toml"))
	return err == nil
}
