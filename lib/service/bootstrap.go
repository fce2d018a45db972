// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// spawnDeadline bounds the wait for a freshly spawned daemon's socket
// to start answering pings.
const spawnDeadline = 2 * time.Second

// daemonBinary is the name of the daemon executable.
const daemonBinary = "envd"

// Connect returns a client for the daemon socket, spawning the daemon
// if nothing answers there. The spawn is race-safe: when two clients
// spawn concurrently, the losing daemon observes the winner's socket
// and exits, and both clients end up talking to the winner.
//
// Returns *envproto.Error with kind daemon-unavailable when the spawn
// fails or the socket never comes up within the deadline.
func Connect(ctx context.Context, socketPath string, logger *slog.Logger) (*Client, error) {
	client := NewClient(socketPath)

	_, err := client.Ping(ctx)
	if err == nil {
		return client, nil
	}
	if !isDaemonAbsent(err) {
		return nil, err
	}

	logger.Debug("daemon not answering, spawning", "socket", socketPath)
	if spawnErr := spawnDaemon(); spawnErr != nil {
		return nil, envproto.Errorf(envproto.KindDaemonUnavailable, "spawning daemon: %v", spawnErr)
	}

	// Poll with exponential backoff until the daemon answers or the
	// deadline passes.
	deadline := time.Now().Add(spawnDeadline)
	backoff := 10 * time.Millisecond
	for {
		if _, err := client.Ping(ctx); err == nil {
			return client, nil
		} else if !isDaemonAbsent(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, envproto.Errorf(envproto.KindDaemonUnavailable,
				"daemon did not answer on %s within %v", socketPath, spawnDeadline)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 250*time.Millisecond {
			backoff = 250 * time.Millisecond
		}
	}
}

// isDaemonAbsent reports whether err means "nobody is serving the
// socket": the file does not exist, or exists but refuses
// connections (a crashed daemon's leftover).
func isDaemonAbsent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// spawnDaemon starts envd fully detached: its own session, stdio on
// /dev/null, no process handle retained. The daemon derives the
// socket path from the same environment this process inherited.
func spawnDaemon() error {
	binary, err := findDaemonBinary()
	if err != nil {
		return err
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(binary)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", binary, err)
	}
	// Detach: the daemon outlives this client; never wait on it.
	return cmd.Process.Release()
}

// findDaemonBinary locates envd: an ENVD_BIN override first (used by
// tests), then a sibling of the running executable, then PATH.
func findDaemonBinary() (string, error) {
	if override := os.Getenv("ENVD_BIN"); override != "" {
		return override, nil
	}
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), daemonBinary)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	binary, err := exec.LookPath(daemonBinary)
	if err != nil {
		return "", fmt.Errorf("locating %s: %w", daemonBinary, err)
	}
	return binary, nil
}
