// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lawrencecchen/cmux-env/lib/codec"
	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// ActionFunc processes one decoded request. Return a payload value to
// include in the success response (nil for an empty envelope), or an
// error for a failure response. Errors that are *envproto.Error reach
// the client with their kind intact; anything else is reported as
// bad-request.
type ActionFunc func(ctx context.Context, req *envproto.Request) (any, error)

// State is the server lifecycle phase.
type State int

const (
	// Starting covers socket probe and bind.
	Starting State = iota
	// Serving accepts and handles connections.
	Serving
	// Draining refuses new connections but completes in-flight ones.
	Draining
	// Stopped means the socket is unlinked and Serve has returned.
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Serving:
		return "serving"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrAlreadyRunning is returned by Serve when another daemon already
// answers pings on the socket. The caller exits 0 silently: losing
// the bind race is a normal outcome of lazy client spawning.
var ErrAlreadyRunning = errors.New("service: daemon already running on socket")

// DefaultRequestTimeout bounds one request-response cycle.
const DefaultRequestTimeout = 5 * time.Second

// probeTimeout bounds the liveness ping sent to a pre-existing socket
// before deciding it is stale.
const probeTimeout = time.Second

// writeTimeout is how long a response write may take. Set separately
// from the request deadline so a Timeout error can still be delivered
// after the request deadline has passed.
const writeTimeout = 10 * time.Second

// SocketServer serves the envd protocol on a Unix socket. Register
// actions with Handle before calling Serve.
type SocketServer struct {
	socketPath     string
	handlers       map[string]ActionFunc
	logger         *slog.Logger
	requestTimeout time.Duration

	mu    sync.Mutex
	state State

	ready chan struct{}
	stop  chan struct{}

	stopOnce sync.Once

	// activeConnections tracks in-flight request handlers so Draining
	// can complete them before the socket is unlinked.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
// A requestTimeout of 0 selects DefaultRequestTimeout.
func NewSocketServer(socketPath string, requestTimeout time.Duration, logger *slog.Logger) *SocketServer {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &SocketServer{
		socketPath:     socketPath,
		handlers:       make(map[string]ActionFunc),
		logger:         logger,
		requestTimeout: requestTimeout,
		ready:          make(chan struct{}),
		stop:           make(chan struct{}),
	}
}

// Handle registers a handler for the given action name. Panics on a
// duplicate registration: that is a programming error, not a runtime
// condition.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Ready is closed once the socket is bound and accepting.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// State returns the current lifecycle phase.
func (s *SocketServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SocketServer) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// BeginShutdown moves the server to Draining: the listener closes,
// in-flight requests (including the one invoking this) complete, and
// Serve returns. Safe to call more than once.
func (s *SocketServer) BeginShutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Serve binds the socket and dispatches requests until ctx is
// cancelled or BeginShutdown is called. The socket file is created
// with mode 0600 and unlinked on return.
//
// If another daemon already answers on the socket path, Serve returns
// ErrAlreadyRunning without disturbing it. A socket file nobody
// answers on is stale (a crashed daemon's leftover) and is unlinked.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := s.clearStaleSocket(); err != nil {
		return err
	}

	// The socket must never be world-accessible. Creation mode is
	// governed by the umask, so mask group/other bits for the bind
	// and restore afterwards; the chmod is a belt-and-suspenders for
	// platforms that ignore umask on socket inodes.
	oldMask := unix.Umask(0o177)
	listener, err := net.Listen("unix", s.socketPath)
	unix.Umask(oldMask)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		os.Remove(s.socketPath)
		return fmt.Errorf("setting socket mode on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
		s.setState(Stopped)
	}()

	// Unblock Accept when the context is cancelled or a shutdown
	// request arrives.
	go func() {
		select {
		case <-ctx.Done():
		case <-s.stop:
		}
		s.setState(Draining)
		listener.Close()
	}()

	s.setState(Serving)
	close(s.ready)
	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || s.State() == Draining {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("socket server stopped")
	return nil
}

// clearStaleSocket probes a pre-existing socket file. A live daemon
// answering pings means this process must not serve; a dead socket is
// removed so the bind can proceed.
func (s *SocketServer) clearStaleSocket() error {
	if _, err := os.Stat(s.socketPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat socket %s: %w", s.socketPath, err)
	}

	conn, err := net.DialTimeout("unix", s.socketPath, probeTimeout)
	if err == nil {
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(probeTimeout))
		if err := codec.WriteFrame(conn, &envproto.Request{Action: envproto.ActionPing}); err == nil {
			var response envproto.Response
			if err := codec.ReadFrame(conn, &response); err == nil && response.OK {
				return ErrAlreadyRunning
			}
		}
		// The socket accepted but did not speak the protocol; treat
		// it as stale.
	}

	s.logger.Warn("removing stale socket", "path", s.socketPath)
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	return nil
}

// handleConnection processes one request-response cycle under the
// per-request deadline.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	deadline := time.Now().Add(s.requestTimeout)
	conn.SetReadDeadline(deadline)

	var request envproto.Request
	if err := codec.ReadFrame(conn, &request); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		if errors.Is(err, codec.ErrFrameTooLarge) {
			s.writeError(conn, envproto.Errorf(envproto.KindTooLarge, "request exceeds %d bytes", codec.MaxFrameSize))
			return
		}
		s.writeError(conn, envproto.Errorf(envproto.KindBadRequest, "invalid request: %v", err))
		return
	}
	if request.Action == "" {
		s.writeError(conn, envproto.Errorf(envproto.KindBadRequest, "missing required field: action"))
		return
	}

	handler, exists := s.handlers[request.Action]
	if !exists {
		s.writeError(conn, envproto.Errorf(envproto.KindBadRequest, "unknown action %q", request.Action))
		return
	}

	requestCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := handler(requestCtx, &request)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			s.logger.Debug("action failed", "action", request.Action, "error", out.err)
			var protoErr *envproto.Error
			if !errors.As(out.err, &protoErr) {
				protoErr = envproto.Errorf(envproto.KindBadRequest, "%v", out.err)
			}
			s.writeError(conn, protoErr)
			return
		}
		s.writeSuccess(conn, out.result)
	case <-requestCtx.Done():
		s.logger.Warn("request deadline exceeded", "action", request.Action)
		s.writeError(conn, envproto.Errorf(envproto.KindTimeout, "request exceeded %v deadline", s.requestTimeout))
	}
}

// writeError sends a failure envelope. Write failures are logged at
// debug level; the connection is closing regardless.
func (s *SocketServer) writeError(conn net.Conn, protoErr *envproto.Error) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.WriteFrame(conn, &envproto.Response{OK: false, Err: protoErr}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

// writeSuccess sends a success envelope, with result marshaled into
// the data field when non-nil.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	response := envproto.Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, envproto.Errorf(envproto.KindBadRequest, "internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}
	if err := codec.WriteFrame(conn, &response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
