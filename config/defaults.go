package config

import (
	"github.com/spf13/viper"
)

// Default locations, relative to the project root
const (
	DefaultModelsDir   = "src/models"
	DefaultElmOutput   = "src/.buildamp-gen"
	DefaultJSOutput    = "server/.buildamp-gen"
	DefaultHandlersDir = "src/Api/Handlers"
	DefaultStatePath   = ".buildamp/state.db"
)

// SetDefaults configures default values for every option
func SetDefaults(v *viper.Viper) {
	v.SetDefault("models.dir", "")
	v.SetDefault("models.cache_size", 512)

	v.SetDefault("output.elm", DefaultElmOutput)
	v.SetDefault("output.js", DefaultJSOutput)
	v.SetDefault("output.handlers", DefaultHandlersDir)

	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", DefaultStatePath)

	v.SetDefault("wasm.enabled", false)
	v.SetDefault("wasm.crate", ".")
	v.SetDefault("wasm.target", "web")
	v.SetDefault("wasm.cargo", "cargo build --release")
	v.SetDefault("wasm.pack", "wasm-pack build")

	v.SetDefault("watch.debounce_ms", 300)
	v.SetDefault("watch.max_reruns_per_minute", 30)

	v.SetDefault("log.max_size_mb", 10)
}

// Default returns a Config holding only the built-in defaults.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode
		panic(err)
	}
	return cfg
}
