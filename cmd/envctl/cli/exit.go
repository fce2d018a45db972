// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// Exit codes of the envctl process, fixed by the CLI contract: 0 for
// success, 1 for user errors (bad key names, undefined variables,
// invalid input), 2 for daemon and transport failures.
const (
	CodeUser   = 1
	CodeDaemon = 2
)

// SilentExit signals a non-zero exit after the command has already
// written whatever output belongs on the terminal. main exits with
// the code without printing anything more: `envctl get MISSING`
// exits 1 with empty stdout this way, and daemon failures exit 2
// after their message has gone to stderr.
type SilentExit int

func (e SilentExit) Error() string {
	return fmt.Sprintf("silent exit with code %d", int(e))
}

// ExitCode returns the process exit code. main detects this method on
// returned errors to tell a handled exit from an error that still
// needs printing.
func (e SilentExit) ExitCode() int {
	return int(e)
}
