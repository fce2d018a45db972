// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"strings"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// QuotePosix single-quotes value for bash/zsh. An embedded single
// quote closes the quoting, emits a backslash-escaped quote, and
// reopens; everything else is literal inside single quotes.
func QuotePosix(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// QuoteFish single-quotes value for fish, where backslash and single
// quote are the only characters needing escapes inside single quotes.
func QuoteFish(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(value) + "'"
}

// RenderCommands turns export actions into shell commands in the
// order given. Keys are assumed valid; the store rejects bad names
// before they can reach an action list.
func RenderCommands(shell envproto.Shell, actions []Action) []string {
	commands := make([]string, 0, len(actions))
	for _, action := range actions {
		commands = append(commands, renderAction(shell, action))
	}
	return commands
}

func renderAction(shell envproto.Shell, action Action) string {
	switch shell {
	case envproto.ShellFish:
		if action.Unset {
			return fmt.Sprintf("set -e %s", action.Key)
		}
		return fmt.Sprintf("set -gx %s %s", action.Key, QuoteFish(action.Value))
	default: // bash and zsh share POSIX export syntax
		if action.Unset {
			return fmt.Sprintf("unset -v %s", action.Key)
		}
		return fmt.Sprintf("export %s=%s", action.Key, QuotePosix(action.Value))
	}
}

// WatermarkCommand renders the trailing assignment that advances the
// shell's ENVCTL_GEN watermark to gen.
func WatermarkCommand(shell envproto.Shell, gen uint64) string {
	if shell == envproto.ShellFish {
		return fmt.Sprintf("set -gx ENVCTL_GEN %d", gen)
	}
	return fmt.Sprintf("export ENVCTL_GEN=%d", gen)
}
