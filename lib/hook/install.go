// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// Marker lines bounding the installed block. Install replaces
// whatever sits between them, so re-running upgrades in place instead
// of appending duplicates.
const (
	markerBegin = "# >>> envctl hook >>>"
	markerEnd   = "# <<< envctl hook <<<"
)

// DefaultRCFile returns the conventional rc file for shell.
func DefaultRCFile(shell envproto.Shell) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	switch shell {
	case envproto.ShellBash:
		return filepath.Join(home, ".bashrc"), nil
	case envproto.ShellZsh:
		return filepath.Join(home, ".zshrc"), nil
	case envproto.ShellFish:
		return filepath.Join(home, ".config", "fish", "conf.d", "envctl.fish"), nil
	}
	return "", fmt.Errorf("unsupported shell %q", shell)
}

// sourceLine returns the line that loads the hook at shell startup.
// The rc file sources the hook indirectly so that upgrading envctl
// upgrades the hook without touching the rc file again.
func sourceLine(shell envproto.Shell) string {
	if shell == envproto.ShellFish {
		return "envctl hook fish | source"
	}
	return fmt.Sprintf(`eval "$(envctl hook %s)"`, shell)
}

// Install idempotently inserts the hook-loading block into rcPath,
// creating the file (and for fish, its directory) when absent. An
// existing marker block is replaced; everything outside the markers
// is preserved byte for byte.
func Install(shell envproto.Shell, rcPath string) error {
	if _, err := Script(shell); err != nil {
		return err
	}
	if rcPath == "" {
		var err error
		rcPath, err = DefaultRCFile(shell)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(rcPath), 0o755); err != nil {
		return fmt.Errorf("creating rc dir for %s: %w", rcPath, err)
	}

	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", rcPath, err)
	}

	block := fmt.Sprintf("%s\n%s\n%s\n", markerBegin, sourceLine(shell), markerEnd)
	updated, err := spliceBlock(string(existing), block)
	if err != nil {
		return fmt.Errorf("updating %s: %w", rcPath, err)
	}

	if err := os.WriteFile(rcPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", rcPath, err)
	}
	return nil
}

// spliceBlock replaces the marker-bounded region of content with
// block, or appends block when no markers exist.
func spliceBlock(content, block string) (string, error) {
	begin := strings.Index(content, markerBegin)
	if begin < 0 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content != "" {
			content += "\n"
		}
		return content + block, nil
	}

	endMarker := strings.Index(content, markerEnd)
	if endMarker < begin {
		return "", fmt.Errorf("begin marker present but end marker missing or misplaced")
	}
	end := endMarker + len(markerEnd)
	// Consume the newline after the end marker so replacement does
	// not accumulate blank lines.
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return content[:begin] + block + content[end:], nil
}
