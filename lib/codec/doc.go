// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides cmux-env's standard CBOR encoding configuration
// and the length-prefixed framing used on the daemon socket.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes, which keeps protocol
// tests byte-stable.
//
// Wire frames are a 4-byte little-endian length followed by that many
// bytes of CBOR payload:
//
//	err := codec.WriteFrame(conn, request)
//	err = codec.ReadFrame(conn, &response)
//
// Frames larger than [MaxFrameSize] are rejected on both sides.
package codec
