package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/logger"
)

var globalConfig *Loaded

// Loaded is a Config plus where it came from.
type Loaded struct {
	*Config
	// Root is the project root: the directory holding buildamp.toml, or the
	// start directory when no project file exists
	Root string
	// Files lists the config files merged, lowest precedence first
	Files []string
	// Viper holds the merged settings for key lookups
	Viper *viper.Viper
}

// Load reads the configuration for the working directory. The result is
// cached until Reset.
func Load() (*Loaded, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine working directory")
	}
	loaded, err := LoadDir(wd)
	if err != nil {
		return nil, err
	}
	globalConfig = loaded
	return loaded, nil
}

// LoadDir reads the configuration as seen from dir.
func LoadDir(dir string) (*Loaded, error) {
	start, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", dir)
	}

	root := start
	project := findProjectConfig(start)
	if project != "" {
		root = filepath.Dir(project)
	}

	// .env never overrides variables already set in the process
	if envFile := filepath.Join(root, ".env"); fileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warnw("Ignoring unreadable .env", logger.FieldFile, envFile, logger.FieldError, err)
		}
	}

	v := newViper()
	files, err := mergeConfigFiles(v, configPaths(project))
	if err != nil {
		return nil, err
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Root: root, Files: files, Viper: v}, nil
}

// LoadWithViper decodes an already prepared viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads defaults plus exactly one file, without environment overrides
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about
	v.SetDefault("requires", "")
	v.SetDefault("project", "")
	SetDefaults(v)
	return v
}

// configPaths lists candidate files, lowest precedence first
func configPaths(project string) []string {
	paths := []string{"/etc/buildamp/config.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".buildamp", "config.toml"))
	}
	if project != "" {
		paths = append(paths, project)
	}
	return paths
}

// mergeConfigFiles layers each existing file over v's config. Environment
// variables keep precedence over every file.
func mergeConfigFiles(v *viper.Viper, paths []string) ([]string, error) {
	var merged []string
	for _, path := range paths {
		if !fileExists(path) {
			continue
		}
		layer := viper.New()
		layer.SetConfigFile(path)
		layer.SetConfigType("toml")
		if err := layer.ReadInConfig(); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "failed to read config file %s", path),
				"fix the TOML syntax or remove the file")
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return nil, errors.Wrapf(err, "failed to merge config file %s", path)
		}
		merged = append(merged, path)
	}
	return merged, nil
}

// findProjectConfig walks up from dir looking for buildamp.toml
func findProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, ProjectFile)
		if fileExists(path) {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
