package pipeline

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/buildamp/config"
	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
)

// Writer puts generated artifacts on disk. A reader never observes a partial
// file: content goes to a sibling temp file that is renamed over the target.
type Writer struct {
	log *zap.SugaredLogger
}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{log: logger.ComponentLogger("writer")}
}

// Write stores content at path and reports whether the file changed.
// Identical content with the right mode is left alone.
func (w *Writer) Write(path string, content []byte, executable bool) (bool, error) {
	mode := fs.FileMode(config.DefaultFilePermissions)
	if executable {
		mode = 0755
	}

	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, content) {
		if info, err := os.Stat(path); err == nil && info.Mode().Perm() == mode {
			w.log.Debugw("Unchanged", logger.FieldFile, path)
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return false, writeError(err, path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, writeError(err, path)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		cleanup()
		return false, writeError(err, path)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		cleanup()
		return false, writeError(err, path)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return false, writeError(err, path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return false, writeError(err, path)
	}

	w.log.Debugw("Wrote artifact", logger.FieldFile, path, "bytes", len(content))
	return true, nil
}

func writeError(err error, path string) error {
	if errors.Is(err, fs.ErrPermission) {
		return errors.WrapPermissionDenied(err, path)
	}
	return errors.Wrapf(err, "failed to write %s", path)
}
