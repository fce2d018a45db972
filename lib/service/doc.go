// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements both ends of the envd Unix socket: the
// daemon's accept loop and the client used by envctl.
//
// The server serves a framed CBOR request-response protocol. Each
// connection handles exactly one request-response cycle: the client
// writes one frame, the server processes it under a per-request
// deadline and writes one frame back, then the connection closes.
//
// The client side adds lazy daemon bootstrap: when the socket is
// absent or refusing connections, [Connect] spawns envd fully
// detached and polls for the socket with exponential backoff. Two
// racing clients may both spawn; the losing daemon observes the
// winner's socket answering pings and exits, and the losing client
// connects to the winner.
package service
