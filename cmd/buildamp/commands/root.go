// Package commands implements the buildamp command line.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/pipeline"
)

// RootCmd generates every phase, or the one named by its argument.
var RootCmd = &cobra.Command{
	Use:   "buildamp [phase]",
	Short: "Generate Elm and JavaScript modules from Rust model structs",
	Long: `buildamp reads the Rust structs under the model directory and generates
the Elm modules, JavaScript glue and handler scaffolds an application needs.

Phases run in a fixed order. With no argument every phase runs; with one,
only that phase runs:

` + phaseTable() + `
Handler scaffolds are written once and then belong to you; later runs never
overwrite them.

Examples:
  buildamp                 # Generate everything
  buildamp db              # Database module and query helpers only
  buildamp check           # Fail when generated files are out of date
  buildamp status -o json  # Model and wasm freshness as JSON
  buildamp watch           # Regenerate whenever a model changes`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(logger.Options{JSON: jsonLogs, Verbosity: verbosity}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity))
		return nil
	},
	RunE: runGen,
}

func init() {
	RootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	RootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	RootCmd.PersistentFlags().StringP("dir", "C", "", "Run as if started in this directory")

	RootCmd.AddCommand(GenCmd)
	RootCmd.AddCommand(CheckCmd)
	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(WatchCmd)
	RootCmd.AddCommand(ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// GenCmd is the explicit form of the root command.
var GenCmd = &cobra.Command{
	Use:   "gen [phase]",
	Short: "Generate every phase, or one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGen,
}

func runGen(cmd *cobra.Command, args []string) error {
	// An unknown phase fails before anything is loaded or written
	if _, err := pipeline.Select(args, false); err != nil {
		return err
	}

	p, err := openProject(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	verbosity, _ := cmd.Flags().GetCount("verbose")
	sum, err := p.orchestrator(pipeline.NewCLIReporter(verbosity)).Run(cmd.Context(), args)
	if sum != nil && len(sum.Results) > 0 {
		if table, tErr := sum.Table(); tErr == nil {
			pterm.Println()
			pterm.Print(table)
			pterm.Println()
		}
		if err == nil {
			pterm.Success.Println(sum.Line())
		}
	}
	return err
}

func phaseTable() string {
	var sb strings.Builder
	for _, p := range pipeline.Phases {
		line := "  " + p.Name
		if len(p.Aliases) > 0 {
			line += strings.Repeat(" ", 12-len(p.Name)) + strings.Join(p.Aliases, ", ")
		}
		if p.Optional {
			line += " (only when selected or wasm.enabled is set)"
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
