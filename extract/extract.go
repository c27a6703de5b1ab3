// Package extract turns a directory of model source files into ParsedStructs.
//
// Extraction is best effort: a malformed field is dropped, an unreadable file
// is skipped, and a missing directory yields no models. Each anomaly is logged
// at warn level and the walk continues.
package extract

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"go.uber.org/zap"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/model/syntax"
)

// IgnoreFile is read from the domain directory when present (gitignore syntax).
const IgnoreFile = ".buildampignore"

// SourceExt is the extension of model source files.
const SourceExt = ".rs"

// Module index files declare submodules, never models.
var indexFiles = map[string]bool{
	"mod.rs": true,
	"lib.rs": true,
}

type options struct {
	cache *Cache
	log   *zap.SugaredLogger
}

// Option configures Dir.
type Option func(*options)

// WithCache reuses parse results for files whose content has not changed.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithLogger overrides the component logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) { o.log = log }
}

// Dir extracts every public struct under dir, in lexical file order.
// A directory that does not exist yields nil, nil.
func Dir(dir string, opts ...Option) ([]model.ParsedStruct, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.ComponentLogger("extract")
	}

	files, err := SourceFiles(dir)
	if err != nil {
		return nil, err
	}

	var structs []model.ParsedStruct
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			o.log.Warnw("Skipping unreadable model file",
				logger.FieldFile, path,
				logger.FieldError, err)
			continue
		}

		var parsed *syntax.File
		if o.cache != nil {
			parsed = o.cache.Parse(path, src)
		} else {
			parsed = syntax.Parse(path, string(src))
		}
		logProblems(o.log, parsed)
		structs = append(structs, FromFile(parsed)...)
	}

	o.log.Debugw("Extracted models",
		logger.FieldDir, dir,
		logger.FieldCount, len(structs))
	return structs, nil
}

// SourceFiles lists model source files under dir, sorted, honoring IgnoreFile.
func SourceFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat model directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("model path %s is not a directory", dir)
	}

	rules := loadIgnore(dir)

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectories are skipped like unreadable files
			logger.Warnw("Skipping unreadable path", logger.FieldPath, path, logger.FieldError, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && rules != nil && rules.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, SourceExt) || indexFiles[name] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk model directory %s", dir)
	}

	sort.Strings(files)
	return files, nil
}

func loadIgnore(dir string) *ignore.GitIgnore {
	path := filepath.Join(dir, IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	rules, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		logger.Warnw("Ignoring unreadable ignore file", logger.FieldFile, path, logger.FieldError, err)
		return nil
	}
	return rules
}

// FromFile keeps public structs with a brace body and their public fields.
func FromFile(f *syntax.File) []model.ParsedStruct {
	var out []model.ParsedStruct
	for _, sd := range f.Structs {
		if !sd.Public || sd.Tuple {
			continue
		}
		ps := model.ParsedStruct{
			Name:       sd.Name,
			SourceFile: f.Path,
			Attrs:      model.FromSyntax(sd.Attrs),
		}
		for _, fd := range sd.Fields {
			if !fd.Public {
				continue
			}
			ps.Fields = append(ps.Fields, model.NewField(fd.Name, fd.Type, model.FromSyntax(fd.Attrs)))
		}
		out = append(out, ps)
	}
	return out
}

func logProblems(log *zap.SugaredLogger, f *syntax.File) {
	for _, p := range f.Problems {
		kv := []interface{}{logger.FieldFile, f.Path, "line", p.Line}
		if p.Struct != "" {
			kv = append(kv, logger.FieldModel, p.Struct)
		}
		if p.Field != "" {
			kv = append(kv, logger.FieldField, p.Field,
				logger.FieldError, errors.Wrap(errors.ErrMalformedField, p.Message))
			log.Warnw("Dropped malformed field", kv...)
			continue
		}
		log.Warnw(p.Message, kv...)
	}
}
