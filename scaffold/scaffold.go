// Package scaffold decides what happens to developer-owned files.
//
// A scaffold is written exactly once. Afterwards it belongs to the developer:
// the guard never reads, rewrites or deletes it, and at most reports that a
// generated module it depends on has changed since it was created.
package scaffold

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
)

// Decision is the outcome for one scaffold path.
type Decision int

const (
	// Create writes the scaffold; nothing exists at the path yet
	Create Decision = iota
	// SkipExisting leaves a developer-owned file alone
	SkipExisting
	// SkipPermissionDenied reports a target directory that refuses writes
	SkipPermissionDenied
)

func (d Decision) String() string {
	switch d {
	case Create:
		return "create"
	case SkipExisting:
		return "skip-existing"
	case SkipPermissionDenied:
		return "skip-permission-denied"
	default:
		return "unknown"
	}
}

// Notice says a scaffold predates one of the generated modules it imports.
type Notice struct {
	Path       string
	Dependency string
	// Behind is how much newer the dependency is
	Behind time.Duration
}

func (n Notice) String() string {
	return filepath.Base(n.Path) + " is older than " + filepath.Base(n.Dependency) +
		"; review it against the regenerated types"
}

// Guard applies the create-once rule.
type Guard struct {
	log *zap.SugaredLogger
}

// New returns a guard logging under the "scaffold" component.
func New() *Guard {
	return &Guard{log: logger.ComponentLogger("scaffold")}
}

// Decide inspects path without writing it. deps are generated files the
// scaffold was created against; missing deps are ignored.
func (g *Guard) Decide(path string, deps []string) (Decision, []Notice) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return SkipExisting, g.stale(path, info.ModTime(), deps)
	case errors.Is(err, fs.ErrPermission):
		return SkipPermissionDenied, nil
	}

	if !writable(filepath.Dir(path)) {
		return SkipPermissionDenied, nil
	}
	return Create, nil
}

// Apply creates path with content unless something already exists there.
// The existence check and the create are one exclusive open, so a file that
// appears between Decide and Apply is still left alone.
func (g *Guard) Apply(path string, content []byte, deps []string) (Decision, []Notice, error) {
	decision, notices := g.Decide(path, deps)
	if decision != Create {
		g.log.Debugw("Scaffold skipped", logger.FieldPath, path, logger.FieldDecision, decision.String())
		return decision, notices, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return SkipPermissionDenied, nil, nil
		}
		return decision, nil, errors.Wrapf(err, "failed to create directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	switch {
	case errors.Is(err, fs.ErrExist):
		return SkipExisting, nil, nil
	case errors.Is(err, fs.ErrPermission):
		return SkipPermissionDenied, nil, nil
	case err != nil:
		return decision, nil, errors.Wrapf(err, "failed to create scaffold %s", path)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return decision, nil, errors.Wrapf(err, "failed to write scaffold %s", path)
	}
	if err := f.Close(); err != nil {
		return decision, nil, errors.Wrapf(err, "failed to close scaffold %s", path)
	}

	g.log.Infow("Scaffold created", logger.FieldPath, path)
	return Create, nil, nil
}

func (g *Guard) stale(path string, created time.Time, deps []string) []Notice {
	var notices []Notice
	for _, dep := range deps {
		info, err := os.Stat(dep)
		if err != nil {
			continue
		}
		if behind := info.ModTime().Sub(created); behind > 0 {
			notices = append(notices, Notice{Path: path, Dependency: dep, Behind: behind})
		}
	}
	return notices
}

// writable reports whether a file could be created in dir. A directory that
// does not exist yet is judged by its nearest existing ancestor.
func writable(dir string) bool {
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return false
			}
			break
		}
		if errors.Is(err, fs.ErrPermission) {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}

	tmp, err := os.CreateTemp(dir, ".buildamp-write-*")
	if err != nil {
		return false
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return true
}
