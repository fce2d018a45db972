// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package paths resolves the per-user runtime locations shared by the
// daemon and the client. Both sides must derive the identical socket
// path from the environment or they will never find each other.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketName is the socket file name inside the runtime directory.
const SocketName = "envd.sock"

// runtimeDir returns the base directory for the socket: XDG_RUNTIME_DIR
// when set, otherwise a per-UID directory under TMPDIR (or /tmp). The
// per-UID suffix keeps users on a shared /tmp from colliding.
func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "cmux-envd")
	}
	tmp := os.Getenv("TMPDIR")
	if tmp == "" {
		tmp = "/tmp"
	}
	return filepath.Join(tmp, fmt.Sprintf("cmux-envd-%d", os.Getuid()))
}

// SocketPath returns the full path of the daemon socket for this user.
func SocketPath() string {
	return filepath.Join(runtimeDir(), SocketName)
}

// EnsureRuntimeDir creates the socket's parent directory with mode
// 0700 and tightens the mode if the directory already existed with
// looser permissions.
func EnsureRuntimeDir() (string, error) {
	dir := runtimeDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating runtime dir %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat runtime dir %s: %w", dir, err)
	}
	if info.Mode().Perm() != 0o700 {
		if err := os.Chmod(dir, 0o700); err != nil {
			return "", fmt.Errorf("tightening runtime dir %s: %w", dir, err)
		}
	}
	return dir, nil
}

// Normalize converts p to an absolute, lexically cleaned path. Symlinks
// are not resolved: scope matching is purely lexical so that a scope
// set via a symlinked pwd matches lookups through the same name.
func Normalize(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if !filepath.IsAbs(p) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolving %q: %w", p, err)
		}
		p = abs
	}
	return filepath.Clean(p), nil
}
