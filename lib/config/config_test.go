// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	t.Setenv("ENVD_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout.Std() != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout.Std())
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
log_format: text
request_timeout: 250ms
socket: /tmp/custom.sock
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RequestTimeout.Std() != 250*time.Millisecond {
		t.Errorf("RequestTimeout = %v, want 250ms", cfg.RequestTimeout.Std())
	}
	if cfg.Socket != "/tmp/custom.sock" {
		t.Errorf("Socket = %q", cfg.Socket)
	}

	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", level, err)
	}
}

func TestLoadViaEnvVar(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	t.Setenv("ENVD_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load succeeded on a missing explicit file")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errHint string
	}{
		{"bad level", "log_level: loud\n", "log_level"},
		{"bad format", "log_format: xml\n", "log_format"},
		{"bad duration", "request_timeout: soon\n", "duration"},
		{"zero timeout", "request_timeout: 0s\n", "positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load accepted %q", tt.content)
			}
			if !strings.Contains(err.Error(), tt.errHint) {
				t.Fatalf("error %q does not mention %q", err, tt.errHint)
			}
		})
	}
}
