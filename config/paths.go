package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/errors"
)

// Paths is the resolved layout the pipeline runs against. Every field is an
// absolute path.
type Paths struct {
	Root     string
	Models   string
	Elm      string
	JS       string
	Handlers string
	// State is the run-history database; empty when state is disabled
	State string
	Crate string
}

// Domain is the model directory of one domain (db, api, kv, ...).
func (p Paths) Domain(name string) string {
	return filepath.Join(p.Models, name)
}

// Output is the directory of an output root.
func (p Paths) Output(r emit.Root) string {
	switch r {
	case emit.RootJS:
		return p.JS
	case emit.RootHandlers:
		return p.Handlers
	default:
		return p.Elm
	}
}

// Resolve turns an artifact location into a filesystem path.
func (p Paths) Resolve(loc emit.Location) string {
	return filepath.Join(p.Output(loc.Root), filepath.FromSlash(loc.Path))
}

// Rel shortens path for display, relative to the project root when possible.
func (p Paths) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// Discover resolves the layout for l. It is the only place that inspects the
// project tree to pick defaults.
func Discover(l *Loaded) (Paths, error) {
	models, err := discoverModels(l.Root, l.Config)
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		Root:     l.Root,
		Models:   models,
		Elm:      abs(l.Root, l.Output.Elm),
		JS:       abs(l.Root, l.Output.JS),
		Handlers: abs(l.Root, l.Output.Handlers),
		Crate:    abs(l.Root, l.Wasm.Crate),
	}
	if l.State.Enabled {
		p.State = abs(l.Root, l.State.Path)
	}
	return p, nil
}

// discoverModels prefers, in order: models.dir, app/<project>/models for the
// configured project, src/models, the only app/*/models. With nothing present
// the default src/models is used and every domain reads as empty.
func discoverModels(root string, cfg *Config) (string, error) {
	if cfg.Models.Dir != "" {
		return abs(root, cfg.Models.Dir), nil
	}

	var projectDir string
	if cfg.Project != "" {
		projectDir = filepath.Join(root, "app", cfg.Project, "models")
		if isDir(projectDir) {
			return projectDir, nil
		}
	}

	def := filepath.Join(root, filepath.FromSlash(DefaultModelsDir))
	if isDir(def) {
		return def, nil
	}

	if projectDir != "" {
		return "", errors.Wrapf(errors.ErrInvalidConfig, "project %q has no models directory at %s", cfg.Project, projectDir)
	}

	candidates, _ := filepath.Glob(filepath.Join(root, "app", "*", "models"))
	var projects []string
	for _, c := range candidates {
		if isDir(c) {
			projects = append(projects, c)
		}
	}
	sort.Strings(projects)

	switch len(projects) {
	case 0:
		return def, nil
	case 1:
		return projects[0], nil
	default:
		names := make([]string, 0, len(projects))
		for _, p := range projects {
			names = append(names, filepath.Base(filepath.Dir(p)))
		}
		return "", errors.WithHintf(
			errors.Wrap(errors.ErrInvalidConfig, "several projects found under app/"),
			"set project in %s to one of: %s", ProjectFile, strings.Join(names, ", "))
	}
}

func abs(root, path string) string {
	if path == "" {
		return root
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
