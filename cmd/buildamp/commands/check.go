package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/pipeline"
)

// CheckCmd fails when generated files differ from a fresh render.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that generated files are up to date",
	Long: `Render every phase in memory and compare the result with the files on disk.
Handler scaffolds are yours and are never compared. Nothing is written.

Exit codes:
  0 - generated files are up to date
  1 - files are missing or modified, or the check failed`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().Bool("no-diff", false, "List stale files without showing differences")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := openProject(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	drift, err := p.orchestrator(nil).Check(cmd.Context())
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		pterm.Success.Println("Generated files are up to date")
		return nil
	}

	noDiff, _ := cmd.Flags().GetBool("no-diff")
	out := cmd.OutOrStdout()
	for _, d := range drift {
		fmt.Fprintf(out, "%s %s (%s)\n", color.YellowString("✗"), d.Path, d.Reason)
		if !noDiff && d.Reason == pipeline.DriftModified {
			writeDiff(out, string(d.Got), string(d.Want))
		}
	}
	return errors.WithHint(
		errors.Newf("%d generated files are out of date", len(drift)),
		"run `buildamp gen` to regenerate them")
}

// writeDiff prints a line diff from got to want: removed lines in red,
// added lines in green.
func writeDiff(w io.Writer, got, want string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(got, want)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	for _, d := range diffs {
		var mark string
		var paint func(...interface{}) string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			mark, paint = "- ", red
		case diffmatchpatch.DiffInsert:
			mark, paint = "+ ", green
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, paint(mark+strings.TrimSuffix(line, "\n")), "\n")
		}
	}
}
