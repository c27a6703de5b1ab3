// Package emit defines generated artifacts and the helpers shared by the
// per-capability emitters under emit/.
//
// An emitter is a pure function from classified models to Files. It never
// touches the filesystem: paths are relative to an output Root, and the
// pipeline resolves roots and performs the writes.
package emit

import (
	"path/filepath"
	"sort"

	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/typemap"
)

// Root selects the output tree a File belongs to.
type Root int

const (
	// RootElm is the functional UI target tree
	RootElm Root = iota
	// RootJS is the glue target tree
	RootJS
	// RootHandlers holds user-owned handler scaffolds
	RootHandlers
)

func (r Root) String() string {
	switch r {
	case RootElm:
		return "elm"
	case RootJS:
		return "js"
	case RootHandlers:
		return "handlers"
	}
	return "unknown"
}

// Kind tells the pipeline how an artifact may be written.
type Kind int

const (
	// Generated artifacts are rewritten on every run
	Generated Kind = iota
	// Scaffold artifacts are created once and then belong to the user
	Scaffold
)

func (k Kind) String() string {
	if k == Scaffold {
		return "scaffold"
	}
	return "generated"
}

// Location is a slash-separated path under an output root.
type Location struct {
	Root Root
	Path string
}

// File is one rendered artifact.
type File struct {
	Location
	Content []byte
	Kind    Kind
	// Executable artifacts are written with mode 0755
	Executable bool
	// DependsOn lists artifacts whose changes make a scaffold stale
	DependsOn []Location
}

// Result is an emitter's output.
type Result struct {
	Files       []File
	Diagnostics []typemap.Diagnostic
	// Models is the number of models the emitter rendered
	Models int
}

// Add appends files.
func (r *Result) Add(files ...File) {
	r.Files = append(r.Files, files...)
}

// Merge folds other into r.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Files = append(r.Files, other.Files...)
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.Models += other.Models
}

// Sorted returns files ordered by root then path.
func (r *Result) Sorted() []File {
	files := append([]File(nil), r.Files...)
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Root != files[j].Root {
			return files[i].Root < files[j].Root
		}
		return files[i].Path < files[j].Path
	})
	return files
}

// Find returns the file at root/path.
func (r *Result) Find(root Root, path string) (File, bool) {
	for _, f := range r.Files {
		if f.Root == root && f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// GeneratedNotice heads every generated artifact.
const GeneratedNotice = "Generated by buildamp. Do not edit: changes are overwritten on the next run."

// Unique keeps one model per name, by the same rule as registry.Build: a
// Primary replaces a Component, otherwise the first declaration stays.
// The kept model takes the position of the name's first occurrence.
func Unique(models []model.Classified) []model.Classified {
	index := make(map[string]int, len(models))
	out := make([]model.Classified, 0, len(models))
	for _, m := range models {
		i, ok := index[m.Name]
		if !ok {
			index[m.Name] = len(out)
			out = append(out, m)
			continue
		}
		if m.IsPrimary() && !out[i].IsPrimary() {
			out[i] = m
		}
	}
	return out
}

// SourceName is the declaring file's base name, stable across checkouts.
func SourceName(m model.Classified) string {
	return filepath.Base(m.SourceFile)
}
