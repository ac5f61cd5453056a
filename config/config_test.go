// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.DefaultTraceDepth != -1 {
		t.Errorf("expected unlimited default trace depth, got %d", cfg.DefaultTraceDepth)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides layer over defaults", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		content := "max_file_size_bytes: 2048\nlanguages:\n  - python\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxFileSizeBytes != 2048 {
			t.Errorf("expected 2048, got %d", cfg.MaxFileSizeBytes)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("unset fields should keep defaults, got %q", cfg.LogLevel)
		}
		if len(cfg.Languages) != 1 || cfg.Languages[0] != "python" {
			t.Errorf("expected languages [python], got %v", cfg.Languages)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("log_level: loud\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		if err := os.WriteFile(path, []byte("max_file_size_bytes: [\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
