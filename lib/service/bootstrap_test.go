// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func TestConnectToRunningServer(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, 0, testLogger())
	server.Handle(envproto.ActionPing, func(ctx context.Context, req *envproto.Request) (any, error) {
		return envproto.Pong{Gen: 3}, nil
	})
	startServer(t, server)

	client, err := Connect(context.Background(), socketPath, testLogger())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	gen, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if gen != 3 {
		t.Fatalf("gen = %d, want 3", gen)
	}
}

func TestConnectSpawnFailureIsDaemonUnavailable(t *testing.T) {
	// /bin/true exits immediately without ever binding the socket, so
	// the backoff loop runs out its deadline.
	t.Setenv("ENVD_BIN", "/bin/true")

	_, err := Connect(context.Background(), testSocketPath(t), testLogger())
	var protoErr *envproto.Error
	if !errors.As(err, &protoErr) || protoErr.Kind != envproto.KindDaemonUnavailable {
		t.Fatalf("Connect error = %v, want daemon-unavailable", err)
	}
}

func TestIsDaemonAbsent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{syscall.ECONNREFUSED, true},
		{syscall.ENOENT, true},
		{fmt.Errorf("connecting to /x: %w", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}), true},
		{fmt.Errorf("connecting to /x: %w", &net.OpError{Op: "dial", Err: syscall.ENOENT}), true},
		{syscall.EACCES, false},
		{errors.New("some other failure"), false},
	}
	for _, tt := range tests {
		if got := isDaemonAbsent(tt.err); got != tt.want {
			t.Errorf("isDaemonAbsent(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
