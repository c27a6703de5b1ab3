package testing

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// WriteTree expands a txtar archive into dir. File names are slash-separated
// paths relative to dir; parent directories are created as needed.
func WriteTree(t *testing.T, dir, archive string) {
	t.Helper()

	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create fixture directory for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", f.Name, err)
		}
	}
}

// TempTree creates a fresh temp directory populated from archive.
func TempTree(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, archive)
	return dir
}
