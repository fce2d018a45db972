// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook emits the shell snippets that keep interactive shells
// converged with the daemon, and installs them into rc files.
//
// The daemon is stateless about shells: each shell carries its own
// watermark (ENVCTL_GEN) and previous working directory
// (ENVCTL_PREV_PWD) in its environment and passes both to
// `envctl export` before every prompt, eval'ing the diff it gets back.
package hook

import (
	"fmt"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// bashScript wires __envctl_apply to bash's DEBUG trap. The trap is
// removed while the apply runs: the eval would otherwise re-trigger it
// recursively.
const bashScript = `# envctl bash hook
__envctl_apply() {
  local out
  out="$(envctl export bash --since "${ENVCTL_GEN:-0}" --pwd "$PWD" --prev-pwd "${ENVCTL_PREV_PWD:-$PWD}")" || return
  eval "$out"
  ENVCTL_PREV_PWD=$PWD
}

__envctl_debug_trap() {
  trap - DEBUG
  __envctl_apply
  trap '__envctl_debug_trap' DEBUG
}

trap '__envctl_debug_trap' DEBUG

# Apply once at shell start.
__envctl_apply
`

const zshScript = `# envctl zsh hook
autoload -U add-zsh-hook
__envctl_apply() {
  local out
  out="$(envctl export zsh --since "${ENVCTL_GEN:-0}" --pwd "$PWD" --prev-pwd "${ENVCTL_PREV_PWD:-$PWD}")" || return
  eval "$out"
  ENVCTL_PREV_PWD=$PWD
}
add-zsh-hook precmd __envctl_apply

# Apply once at shell start.
__envctl_apply
`

const fishScript = `# envctl fish hook
function __envctl_apply --on-event fish_prompt
  set -q ENVCTL_GEN; or set -g ENVCTL_GEN 0
  set -q ENVCTL_PREV_PWD; or set -g ENVCTL_PREV_PWD $PWD
  envctl export fish --since "$ENVCTL_GEN" --pwd "$PWD" --prev-pwd "$ENVCTL_PREV_PWD" | source
  set -g ENVCTL_PREV_PWD $PWD
end

# Apply once at shell start.
__envctl_apply
`

// Script returns the hook text for shell.
func Script(shell envproto.Shell) (string, error) {
	switch shell {
	case envproto.ShellBash:
		return bashScript, nil
	case envproto.ShellZsh:
		return zshScript, nil
	case envproto.ShellFish:
		return fishScript, nil
	}
	return "", fmt.Errorf("unsupported shell %q", shell)
}
