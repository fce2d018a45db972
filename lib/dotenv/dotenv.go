// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package dotenv parses the KEY=VALUE file format accepted by
// `envctl load`. Parsing is all-or-nothing: any invalid line fails the
// whole parse with a line-numbered diagnostic, which is what lets the
// daemon apply loads atomically.
package dotenv

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

// Parse reads dotenv input and returns its entries in file order.
//
// Grammar: one KEY=VALUE per line; blank lines and `#` comments are
// ignored; a leading `export ` on an assignment is tolerated. Values
// may be single-quoted (literal), double-quoted (with \n, \t, \\, \"
// and \$ escapes), or bare (trimmed, no quote processing).
func Parse(r io.Reader) ([]envproto.Entry, error) {
	var entries []envproto.Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE, got %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNo)
		}
		value, err := parseValue(strings.TrimSpace(line[eq+1:]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, envproto.Entry{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return entries, nil
}

// ParseBase64 decodes a base64 payload and parses it as dotenv input.
// Both standard and raw (unpadded) alphabets are accepted, since the
// payload typically arrives via shells that strip padding freely.
func ParseBase64(encoded string) ([]envproto.Entry, error) {
	encoded = strings.TrimSpace(encoded)
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding base64 input: %w", err)
	}
	return Parse(strings.NewReader(string(decoded)))
}

func parseValue(raw string) (string, error) {
	if len(raw) >= 2 && raw[0] == '\'' {
		if raw[len(raw)-1] != '\'' {
			return "", fmt.Errorf("unterminated single-quoted value")
		}
		return raw[1 : len(raw)-1], nil
	}
	if len(raw) >= 1 && raw[0] == '"' {
		return parseDoubleQuoted(raw)
	}
	if len(raw) == 1 && (raw[0] == '\'' || raw[0] == '"') {
		return "", fmt.Errorf("unterminated quoted value")
	}
	return raw, nil
}

func parseDoubleQuoted(raw string) (string, error) {
	if len(raw) < 2 || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("unterminated double-quoted value")
	}
	body := raw[1 : len(raw)-1]

	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			if c == '"' {
				return "", fmt.Errorf("unescaped quote inside double-quoted value")
			}
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash in double-quoted value")
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		case '$':
			out.WriteByte('$')
		default:
			return "", fmt.Errorf("unsupported escape \\%c", body[i])
		}
	}
	return out.String(), nil
}
