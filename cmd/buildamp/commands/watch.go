package commands

import (
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/pipeline"
	"github.com/teranos/buildamp/watch"
)

// WatchCmd regenerates whenever a model changes.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever a model file changes",
	Long: `Run every phase once, then watch the model directory and rerun after
changes settle. Reruns never overlap. Press Ctrl-C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := openProject(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	models := p.env.Paths.Models
	if _, err := os.Stat(models); err != nil {
		return errors.WithHint(errors.Wrapf(err, "cannot watch %s", models),
			"create the model directory or set models.dir in buildamp.toml")
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	orch := p.orchestrator(pipeline.NewCLIReporter(verbosity))
	rerun := func(ctx context.Context) error {
		sum, err := orch.Run(ctx, nil)
		if err != nil {
			return err
		}
		pterm.Success.Println(sum.Line())
		return nil
	}

	if err := rerun(cmd.Context()); err != nil {
		pterm.Error.Println(err)
	}

	cfg := p.env.Config.Watch
	w, err := watch.New(models, rerun,
		watch.WithDebounce(time.Duration(cfg.DebounceMS)*time.Millisecond),
		watch.WithMaxRerunsPerMinute(cfg.MaxRerunsPerMinute))
	if err != nil {
		return err
	}
	pterm.Info.Printf("Watching %s\n", p.env.Paths.Rel(models))
	return w.Run(cmd.Context())
}
