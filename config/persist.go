package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/buildamp/errors"
)

const defaultHeader = `# buildamp project configuration.
# Every value can be overridden with a BUILDAMP_* environment variable,
# e.g. BUILDAMP_OUTPUT_ELM=src/gen.

`

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return buf.Bytes(), nil
}

// WriteDefault writes a starter buildamp.toml into dir. An existing file is
// left alone and reported.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ProjectFile)
	if _, err := os.Stat(path); err == nil {
		return path, errors.WithHint(
			errors.Newf("%s already exists", path),
			"edit it directly or remove it first")
	}

	data, err := Marshal(Default())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dir)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), DefaultFilePermissions); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
