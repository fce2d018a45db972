// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the envctl command surface: a flat registry
// of verbs with pflag flag sets, declarative positional-argument
// bounds, structured help output, typo suggestions for unknown verbs
// and flags, and exit-code control via [SilentExit].
package cli
