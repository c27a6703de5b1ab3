package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/db"
	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/pipeline"
)

// project is a loaded, validated buildamp project.
type project struct {
	loaded *config.Loaded
	env    *pipeline.Env
	store  *db.Store
}

// projectDir is --dir or the working directory.
func projectDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	return wd, nil
}

// loadConfig reads the configuration seen from --dir, or from the working
// directory through the process-wide cache.
func loadConfig(cmd *cobra.Command) (*config.Loaded, error) {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return config.LoadDir(dir)
	}
	return config.Load()
}

func openProject(cmd *cobra.Command) (*project, error) {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Log.File != "" {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		file := cfg.Log.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(loaded.Root, file)
		}
		if err := logger.Initialize(logger.Options{
			JSON:      jsonLogs,
			Verbosity: verbosity,
			File:      file,
			MaxSizeMB: cfg.Log.MaxSizeMB,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to initialize log file")
		}
	}

	paths, err := config.Discover(loaded)
	if err != nil {
		return nil, err
	}
	logger.Debugw("Project layout",
		logger.FieldDir, paths.Root,
		"models", paths.Models,
		"elm", paths.Elm,
		"js", paths.JS,
		"handlers", paths.Handlers,
		"config_files", loaded.Files)

	env, err := pipeline.NewEnv(paths, cfg)
	if err != nil {
		return nil, err
	}

	p := &project{loaded: loaded, env: env}
	if paths.State != "" {
		store, err := db.OpenStore(paths.State)
		if err != nil {
			return nil, errors.WithHint(err, "set state.enabled = false in buildamp.toml to run without history")
		}
		p.store = store
	}
	return p, nil
}

func (p *project) Close() {
	if p.store != nil {
		p.store.Close()
	}
}

func (p *project) orchestrator(reporter pipeline.Reporter) *pipeline.Orchestrator {
	var opts []pipeline.Option
	if p.store != nil {
		opts = append(opts, pipeline.WithRecorder(p.store))
	}
	if reporter != nil {
		opts = append(opts, pipeline.WithReporter(reporter))
	}
	return pipeline.New(p.env, opts...)
}

// state returns the store as a StateReader, or nil without history.
func (p *project) state() pipeline.StateReader {
	if p.store == nil {
		return nil
	}
	return p.store
}
