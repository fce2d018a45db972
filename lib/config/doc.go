// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the envd daemon.
//
// Configuration is loaded from a single YAML file specified by:
//   - the ENVD_CONFIG environment variable, or
//   - the --config flag passed to envd, or
//   - $XDG_CONFIG_HOME/cmux-envd/config.yaml (~/.config when
//     XDG_CONFIG_HOME is unset) when it exists.
//
// There are no other fallbacks or discovery chains; a missing default
// file simply yields the built-in defaults. Flags override file values.
package config
