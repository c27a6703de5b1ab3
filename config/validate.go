package config

import (
	"slices"
	"strings"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/version"
)

// Validate checks that the configuration is usable by this binary
func (c *Config) Validate() error {
	if err := version.CheckConstraint(c.Requires); err != nil {
		return err
	}

	if c.Output.Elm == "" || c.Output.JS == "" || c.Output.Handlers == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "output.elm, output.js and output.handlers must be set")
	}

	if c.Models.CacheSize < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "models.cache_size must be >= 0, got %d", c.Models.CacheSize)
	}

	// Zero debounce reruns on every event; negative is invalid
	if c.Watch.DebounceMS < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MaxRerunsPerMinute < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "watch.max_reruns_per_minute must be >= 0, got %d", c.Watch.MaxRerunsPerMinute)
	}

	if c.Wasm.Enabled || c.Wasm.Target != "" {
		if !slices.Contains(WasmTargets, c.Wasm.Target) {
			return errors.WithHintf(
				errors.Wrapf(errors.ErrInvalidConfig, "wasm.target %q is not supported", c.Wasm.Target),
				"use one of: %s", strings.Join(WasmTargets, ", "))
		}
	}

	if c.State.Enabled && c.State.Path == "" {
		return errors.Wrap(errors.ErrInvalidConfig, "state.path cannot be empty when state is enabled")
	}
	return nil
}
