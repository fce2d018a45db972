// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lawrencecchen/cmux-env/lib/codec"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// dialTimeout is the maximum time to wait for a connection to the
// daemon socket. This covers only the connect phase; the response
// wait is bounded separately.
const dialTimeout = 5 * time.Second

// responseTimeout is how long the client waits for the daemon's
// response after writing the request. Slightly above the server's
// request deadline so the server-side Timeout error wins the race.
const responseTimeout = DefaultRequestTimeout + 2*time.Second

// Client sends framed requests to the envd socket. Each Call opens a
// new connection, matching the server's one-request-per-connection
// model.
type Client struct {
	socketPath string
}

// NewClient creates a client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath returns the socket this client dials.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Call sends one request and decodes the response payload into result
// (which may be nil for actions whose reply carries no data).
//
// A failure envelope from the daemon is returned as *envproto.Error
// with its kind intact. Connection and framing failures are returned
// as plain errors.
func (c *Client) Call(ctx context.Context, request *envproto.Request, result any) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(responseTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetDeadline(deadline)

	if err := codec.WriteFrame(conn, request); err != nil {
		if errors.Is(err, codec.ErrFrameTooLarge) {
			return envproto.Errorf(envproto.KindTooLarge, "request exceeds %d bytes", codec.MaxFrameSize)
		}
		return fmt.Errorf("writing %q request: %w", request.Action, err)
	}

	// Half-close so the server sees EOF if it ever reads past the
	// frame. The framing makes this optional; it is just hygiene.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response envproto.Response
	if err := codec.ReadFrame(conn, &response); err != nil {
		return fmt.Errorf("reading %q response: %w", request.Action, err)
	}

	if !response.OK {
		if response.Err == nil {
			return envproto.Errorf(envproto.KindBadRequest, "daemon reported failure without detail")
		}
		return response.Err
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding %q response data: %w", request.Action, err)
		}
	}
	return nil
}

// Ping checks daemon liveness and returns the current generation.
func (c *Client) Ping(ctx context.Context) (uint64, error) {
	var pong envproto.Pong
	if err := c.Call(ctx, &envproto.Request{Action: envproto.ActionPing}, &pong); err != nil {
		return 0, err
	}
	return pong.Gen, nil
}
