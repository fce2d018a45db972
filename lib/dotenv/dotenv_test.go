// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package dotenv

import (
	"encoding/base64"
	"reflect"
	"strings"
	"testing"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func parse(t *testing.T, input string) []envproto.Entry {
	t.Helper()
	entries, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return entries
}

func TestParseBasics(t *testing.T) {
	input := `
# leading comment
A=1

export B=two
C = spaced
`
	want := []envproto.Entry{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "two"},
		{Key: "C", Value: "spaced"},
	}
	if got := parse(t, input); !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}
}

func TestParseQuoting(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`K='literal $HOME \n'`, `literal $HOME \n`},
		{`K="tab\there"`, "tab\there"},
		{`K="line\nbreak"`, "line\nbreak"},
		{`K="esc \" quote"`, `esc " quote`},
		{`K="\$not_expanded"`, "$not_expanded"},
		{`K="back\\slash"`, `back\slash`},
		{`K=`, ""},
		{`K=''`, ""},
		{`K=""`, ""},
	}
	for _, tt := range tests {
		entries := parse(t, tt.line)
		if len(entries) != 1 || entries[0].Value != tt.want {
			t.Errorf("Parse(%q) = %+v, want value %q", tt.line, entries, tt.want)
		}
	}
}

func TestParseErrorsCarryLineNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"missing equals", "A=1\nnot-an-assignment\n", "line 2"},
		{"empty key", "=value\n", "line 1"},
		{"unterminated double quote", "A=1\nB=2\nC=\"open\n", "line 3"},
		{"bad escape", `A="\x41"` + "\n", "line 1"},
		{"unescaped quote", `A="a"b"` + "\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("Parse accepted %q", tt.input)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Fatalf("error %q does not name %s", err, tt.line)
			}
		})
	}
}

func TestParseBase64(t *testing.T) {
	plain := "A=1\nB=\"two\"\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(plain))

	want := []envproto.Entry{{Key: "A", Value: "1"}, {Key: "B", Value: "two"}}

	got, err := ParseBase64(encoded)
	if err != nil {
		t.Fatalf("ParseBase64: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}

	// Unpadded input decodes too.
	got, err = ParseBase64(strings.TrimRight(encoded, "="))
	if err != nil {
		t.Fatalf("ParseBase64 (unpadded): %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unpadded entries = %+v, want %+v", got, want)
	}

	if _, err := ParseBase64("!!not base64!!"); err == nil {
		t.Fatal("ParseBase64 accepted invalid input")
	}
}
