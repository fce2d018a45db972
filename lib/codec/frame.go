// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload accepted on the wire. A frame
// header announcing more than this is rejected without reading the
// payload, bounding per-connection memory.
const MaxFrameSize = 16 << 20

// ErrFrameTooLarge is returned when a frame header announces a payload
// larger than MaxFrameSize, or when an encoded value would exceed it.
var ErrFrameTooLarge = errors.New("codec: frame exceeds 16 MiB limit")

// WriteFrame encodes v as CBOR and writes it as one length-prefixed
// frame: a 4-byte little-endian payload length followed by the payload.
func WriteFrame(w io.Writer, v any) error {
	payload, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame payload: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and decodes its
// CBOR payload into v. Returns io.EOF unwrapped when the stream ends
// cleanly before the header so callers can distinguish a closed
// connection from a truncated frame.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("reading frame header: %w", err)
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("reading frame payload: %w", err)
	}
	if err := Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decoding frame payload: %w", err)
	}
	return nil
}
