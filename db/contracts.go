package db

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/teranos/buildamp/errors"
)

// Contracts maps each model file, slash-separated and relative to the model
// root, to the SHA-256 of its content. Master signs the whole set.
type Contracts struct {
	Files  map[string]string `json:"files" yaml:"files"`
	Master string            `json:"master" yaml:"master"`
}

// ContractDiff lists model files that differ from the recorded contracts.
type ContractDiff struct {
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []string `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// Empty reports whether nothing changed.
func (d ContractDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// HashFiles builds contracts for files under root.
func HashFiles(root string, files []string) (Contracts, error) {
	c := Contracts{Files: make(map[string]string, len(files))}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return Contracts{}, errors.Wrapf(err, "failed to hash %s", path)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		sum := sha256.Sum256(data)
		c.Files[filepath.ToSlash(rel)] = hex.EncodeToString(sum[:])
	}
	c.Master = master(c.Files)
	return c, nil
}

// master hashes "path:sha256\n" lines in path order
func master(files map[string]string) string {
	h := sha256.New()
	for _, path := range sortedKeys(files) {
		h.Write([]byte(path + ":" + files[path] + "\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Compare reports how current differs from recorded.
func Compare(recorded, current Contracts) ContractDiff {
	var d ContractDiff
	if recorded.Master != "" && recorded.Master == current.Master {
		return d
	}
	for _, path := range sortedKeys(current.Files) {
		old, ok := recorded.Files[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case old != current.Files[path]:
			d.Changed = append(d.Changed, path)
		}
	}
	for _, path := range sortedKeys(recorded.Files) {
		if _, ok := current.Files[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}
	return d
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
