// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon's tunable settings.
type Config struct {
	// Socket overrides the derived socket path. Empty means derive
	// from the runtime directory.
	Socket string `yaml:"socket"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text".
	LogFormat string `yaml:"log_format"`

	// RequestTimeout bounds the handling of a single request.
	// Accepts Go duration syntax in YAML ("5s", "250ms").
	RequestTimeout Duration `yaml:"request_timeout"`
}

// Duration wraps time.Duration so YAML values can use Go duration
// syntax; yaml.v3 has no native duration decoding.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler. Accepts either a duration
// string ("5s") or a bare integer of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// Integers first: yaml.v3 also decodes an integer scalar into a
	// string, which ParseDuration would then reject for lacking a unit.
	var nanos int64
	if err := value.Decode(&nanos); err == nil {
		*d = Duration(nanos)
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:       "info",
		LogFormat:      "json",
		RequestTimeout: Duration(5 * time.Second),
	}
}

// DefaultPath returns the conventional config file location, or ""
// when the home directory cannot be determined.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cmux-envd", "config.yaml")
}

// Load reads the config file at path, applying file values over the
// defaults. An explicit path must exist; the default path is allowed
// to be absent.
//
// Resolution order for path == "": $ENVD_CONFIG, then [DefaultPath].
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("ENVD_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log_format %q (want json or text)", c.LogFormat)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout.Std())
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", c.LogLevel)
}

// NewLogger constructs the daemon logger per LogFormat and LogLevel.
func (c *Config) NewLogger() (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, options)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options)), nil
}
