package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/pipeline"
)

var statusFormat string

// StatusCmd reports whether models and the wasm build are current.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether generated code and wasm builds are current",
	Long: `Compare the model sources with the contracts recorded by the last full
run, show that run, and compare each wasm build with the newest model file.

Examples:
  buildamp status          # Human-readable report
  buildamp status -o json  # For scripts and CI`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	StatusCmd.Flags().StringVarP(&statusFormat, "output", "o", "text", "Output format: text, json, yaml")
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := openProject(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	st, err := pipeline.BuildStatus(cmd.Context(), p.env, p.state())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch statusFormat {
	case "json":
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal status to JSON")
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(st)
		if err != nil {
			return errors.Wrap(err, "failed to marshal status to YAML")
		}
		fmt.Fprint(out, string(data))
	case "text":
		writeStatus(out, st)
	default:
		return errors.Newf("unsupported format: %s (supported: text, json, yaml)", statusFormat)
	}
	return nil
}

func writeStatus(w io.Writer, st *pipeline.Status) {
	fmt.Fprintln(w, "📊 buildamp status")
	if st.Project != "" {
		fmt.Fprintf(w, "   Project: %s\n", st.Project)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Models:")
	switch {
	case st.Models.Dirty:
		fmt.Fprintf(w, "   %s Dirty (%s)\n", pterm.Red("✗"), st.Models.Reason)
		writeList(w, "Changed", st.Models.Details.Changed)
		writeList(w, "Added", st.Models.Details.Added)
		writeList(w, "Removed", st.Models.Details.Removed)
	case st.Models.Reason == pipeline.ModelsUntracked:
		fmt.Fprintln(w, "   ? Untracked (state.enabled is false)")
	default:
		fmt.Fprintf(w, "   %s Clean\n", pterm.Green("✓"))
	}
	fmt.Fprintln(w)

	if run := st.LastRun; run != nil {
		fmt.Fprintf(w, "Last run: %s %s at %s\n", run.Status, strings.Join(run.Phases, ","),
			run.StartedAt.Local().Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	if len(st.Wasm) > 0 {
		fmt.Fprintln(w, "WASM:")
		for _, ws := range st.Wasm {
			if ws.NeedsRebuild {
				fmt.Fprintf(w, "   %s: %s %s\n", ws.Target, pterm.Red("✗"), ws.Reason)
				continue
			}
			built := ""
			if ws.WasmMtime != nil {
				built = " (built: " + ws.WasmMtime.Format(time.RFC3339) + ")"
			}
			fmt.Fprintf(w, "   %s: %s %s%s\n", ws.Target, pterm.Green("✓"), ws.Reason, built)
		}
		fmt.Fprintln(w)
	}

	if len(st.Suggestions) > 0 {
		fmt.Fprintln(w, "Suggestions:")
		for _, s := range st.Suggestions {
			fmt.Fprintf(w, "   → %s\n", s)
		}
	}
}

func writeList(w io.Writer, label string, items []string) {
	if len(items) > 0 {
		fmt.Fprintf(w, "     %s: %s\n", label, strings.Join(items, ", "))
	}
}
