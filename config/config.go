// Package config loads buildamp settings and resolves the project layout.
//
// Settings merge, lowest precedence first: built-in defaults,
// /etc/buildamp/config.toml, ~/.buildamp/config.toml, the project's
// buildamp.toml (searched upward from the working directory), then BUILDAMP_*
// environment variables. Discover turns the merged Config into the explicit
// Paths object the pipeline runs against.
package config

// Config is the merged buildamp configuration.
type Config struct {
	// Requires is a semver constraint on the buildamp binary (e.g. ">= 0.4.0")
	Requires string `mapstructure:"requires" toml:"requires,omitempty"`
	// Project selects app/<project>/models when several projects exist
	Project string       `mapstructure:"project" toml:"project,omitempty"`
	Models  ModelsConfig `mapstructure:"models" toml:"models"`
	Output  OutputConfig `mapstructure:"output" toml:"output"`
	State   StateConfig  `mapstructure:"state" toml:"state"`
	Wasm    WasmConfig   `mapstructure:"wasm" toml:"wasm"`
	Watch   WatchConfig  `mapstructure:"watch" toml:"watch"`
	Log     LogConfig    `mapstructure:"log" toml:"log"`
}

// ModelsConfig locates the model tree.
type ModelsConfig struct {
	Dir       string `mapstructure:"dir" toml:"dir,omitempty"` // empty = discover
	CacheSize int    `mapstructure:"cache_size" toml:"cache_size"`
}

// OutputConfig sets the three output roots.
type OutputConfig struct {
	Elm      string `mapstructure:"elm" toml:"elm"`
	JS       string `mapstructure:"js" toml:"js"`
	Handlers string `mapstructure:"handlers" toml:"handlers"`
}

// StateConfig configures the run-history database.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Path    string `mapstructure:"path" toml:"path"`
}

// WasmConfig configures the optional wasm phase.
type WasmConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Crate   string `mapstructure:"crate" toml:"crate"`   // directory holding Cargo.toml
	Target  string `mapstructure:"target" toml:"target"` // web, node or bundler
	Cargo   string `mapstructure:"cargo" toml:"cargo"`
	Pack    string `mapstructure:"pack" toml:"pack"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	DebounceMS         int `mapstructure:"debounce_ms" toml:"debounce_ms"`
	MaxRerunsPerMinute int `mapstructure:"max_reruns_per_minute" toml:"max_reruns_per_minute"`
}

// LogConfig configures the optional rotating log file.
type LogConfig struct {
	File      string `mapstructure:"file" toml:"file,omitempty"`
	MaxSizeMB int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
}

// File names and permissions
const (
	ProjectFile = "buildamp.toml"
	EnvPrefix   = "BUILDAMP"

	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Wasm targets accepted by wasm-pack
var WasmTargets = []string{"web", "node", "bundler"}
