// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads analysis engine settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a config file that parsed but fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the tunable settings of the analysis engine.
type Config struct {
	// MaxFileSizeBytes is the hard per-file limit. Files above it are
	// skipped with a warning rather than parsed.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	// WarnFileSizeBytes logs a warning for files above this size that
	// are still analyzed.
	WarnFileSizeBytes int64 `yaml:"warn_file_size_bytes"`

	// DefaultTraceDepth is the hop limit used when a traversal does not
	// specify one. Negative means unlimited.
	DefaultTraceDepth int `yaml:"default_trace_depth"`

	// Languages restricts analysis to the named languages. Empty means
	// every registered language.
	Languages []string `yaml:"languages"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxFileSizeBytes:  10 * 1024 * 1024,
		WarnFileSizeBytes: 1024 * 1024,
		DefaultTraceDepth: -1,
		LogLevel:          "info",
	}
}

// Load reads a YAML config file, layering it over Default.
//
// Outputs:
//   - *Config: The merged configuration.
//   - error: File read errors, YAML errors, or ErrInvalidConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("%w: max_file_size_bytes must be positive", ErrInvalidConfig)
	}
	if c.WarnFileSizeBytes < 0 {
		return fmt.Errorf("%w: warn_file_size_bytes must not be negative", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
