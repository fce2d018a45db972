// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package envproto defines the CBOR message types for the envctl↔envd
// Unix socket protocol. Both cmd/envd and the client in lib/service
// import this package so the wire types are defined once rather than
// mirrored.
//
// Every request is a single frame carrying a [Request] with an action
// name plus the fields that action uses. Every response is a single
// frame carrying a [Response] envelope: {ok, error, data}, where data
// holds the action-specific payload as raw CBOR.
package envproto
