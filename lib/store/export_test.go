// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"reflect"
	"testing"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func mustExport(t *testing.T, s *Store, pwd, prevPwd string, since uint64) (uint64, []Action) {
	t.Helper()
	gen, actions, err := s.Export(pwd, prevPwd, since)
	if err != nil {
		t.Fatalf("Export(%q, %q, %d): %v", pwd, prevPwd, since, err)
	}
	return gen, actions
}

func TestExportSinceZeroMatchesList(t *testing.T) {
	s := New()
	mustSet(t, s, "", "B", "2")
	mustSet(t, s, "", "A", "1")
	mustSet(t, s, "/p", "C", "3")

	gen, actions := mustExport(t, s, "/p/sub", "", 0)
	if gen != 3 {
		t.Fatalf("Export gen = %d, want 3", gen)
	}

	want := []Action{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "2"},
		{Key: "C", Value: "3"},
	}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}

	// Diff soundness: applying the full export equals iterating List.
	items, err := s.List("/p/sub")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != len(actions) {
		t.Fatalf("List has %d entries, export has %d", len(items), len(actions))
	}
	for i, item := range items {
		if actions[i].Key != item.Key || actions[i].Value != item.Value || actions[i].Unset {
			t.Errorf("action %d = %+v, list item = %+v", i, actions[i], item)
		}
	}
}

func TestExportSinceFiltersOldChanges(t *testing.T) {
	s := New()
	mustSet(t, s, "", "OLD", "1")
	watermark := s.Gen()
	mustSet(t, s, "", "NEW", "2")

	_, actions := mustExport(t, s, "/any", "", watermark)
	if len(actions) != 1 || actions[0].Key != "NEW" {
		t.Fatalf("actions = %+v, want only NEW", actions)
	}
}

func TestExportNothingNewIsEmpty(t *testing.T) {
	s := New()
	mustSet(t, s, "", "X", "1")

	gen, actions := mustExport(t, s, "/any", "/any", s.Gen())
	if len(actions) != 0 {
		t.Fatalf("actions = %+v, want none", actions)
	}
	if gen != s.Gen() {
		t.Fatalf("gen = %d, want %d", gen, s.Gen())
	}
}

func TestExportUnsetEmitsRemoval(t *testing.T) {
	s := New()
	mustSet(t, s, "", "FOO", "bar")
	watermark := s.Gen()
	if _, err := s.Unset("", "FOO"); err != nil {
		t.Fatalf("Unset: %v", err)
	}

	_, actions := mustExport(t, s, "/any", "", watermark)
	want := []Action{{Key: "FOO", Unset: true}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}
}

func TestExportIgnoresUnrelatedOverlayChanges(t *testing.T) {
	s := New()
	mustSet(t, s, "/other/project", "SECRET", "x")

	_, actions := mustExport(t, s, "/home/me", "/home/me", 0)
	if len(actions) != 0 {
		t.Fatalf("actions = %+v, want none (change is in an unrelated overlay)", actions)
	}
}

func TestExportPwdTransition(t *testing.T) {
	s := New()
	mustSet(t, s, "", "VAR", "global")
	mustSet(t, s, "/p/proj", "VAR", "local")
	watermark := s.Gen()

	// Shell applied everything at /p/proj/sub, then moved to /p.
	// Nothing changed in the store, but the effective value did.
	_, actions := mustExport(t, s, "/p", "/p/proj/sub", watermark)
	want := []Action{{Key: "VAR", Value: "global"}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}

	// Moving back picks up the overlay again.
	_, actions = mustExport(t, s, "/p/proj/sub", "/p", watermark)
	want = []Action{{Key: "VAR", Value: "local"}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}

	// Moving between two dirs inside the same overlay emits nothing.
	_, actions = mustExport(t, s, "/p/proj/a", "/p/proj/b", watermark)
	if len(actions) != 0 {
		t.Fatalf("actions = %+v, want none for same-overlay move", actions)
	}
}

func TestExportTransitionIntoTombstone(t *testing.T) {
	s := New()
	mustSet(t, s, "", "VAR", "global")
	if _, err := s.Unset("/p/proj", "VAR"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	watermark := s.Gen()

	_, actions := mustExport(t, s, "/p/proj", "/elsewhere", watermark)
	want := []Action{{Key: "VAR", Unset: true}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}
}

func TestExportOrderingUnsetsBeforeSortedSets(t *testing.T) {
	s := New()
	mustSet(t, s, "", "Z", "26")
	mustSet(t, s, "", "A", "1")
	mustSet(t, s, "", "M", "13")
	if _, err := s.Unset("", "Z"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if _, err := s.Unset("", "B"); err != nil {
		t.Fatalf("Unset: %v", err)
	}

	_, actions := mustExport(t, s, "/any", "", 0)
	want := []Action{
		{Key: "B", Unset: true},
		{Key: "Z", Unset: true},
		{Key: "A", Value: "1"},
		{Key: "M", Value: "13"},
	}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want %+v", actions, want)
	}
}

func TestExportStaleWatermarkResyncsEverything(t *testing.T) {
	s := New()
	mustSet(t, s, "", "A", "1")

	// Watermark from a previous daemon life, far beyond current gen.
	_, actions := mustExport(t, s, "/any", "", 9000)
	want := []Action{{Key: "A", Value: "1"}}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %+v, want full resync %+v", actions, want)
	}
}

func TestExportSameGenSameView(t *testing.T) {
	s := New()
	mustSet(t, s, "", "A", "1")
	mustSet(t, s, "/p", "B", "2")

	gen1, actions1 := mustExport(t, s, "/p", "", 0)
	gen2, actions2 := mustExport(t, s, "/p", "", 0)
	if gen1 != gen2 || !reflect.DeepEqual(actions1, actions2) {
		t.Fatalf("two exports at the same gen disagree: (%d, %+v) vs (%d, %+v)",
			gen1, actions1, gen2, actions2)
	}
}

func TestRenderCommandsBash(t *testing.T) {
	actions := []Action{
		{Key: "GONE", Unset: true},
		{Key: "EMPTY", Value: ""},
		{Key: "Q", Value: `a'b"c$d`},
	}
	got := RenderCommands(envproto.ShellBash, actions)
	want := []string{
		"unset -v GONE",
		"export EMPTY=''",
		`export Q='a'\''b"c$d'`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("commands = %q, want %q", got, want)
	}
}

func TestRenderCommandsFish(t *testing.T) {
	actions := []Action{
		{Key: "GONE", Unset: true},
		{Key: "P", Value: `back\slash'quote`},
	}
	got := RenderCommands(envproto.ShellFish, actions)
	want := []string{
		"set -e GONE",
		`set -gx P 'back\\slash\'quote'`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("commands = %q, want %q", got, want)
	}
}

func TestWatermarkCommand(t *testing.T) {
	if got := WatermarkCommand(envproto.ShellZsh, 7); got != "export ENVCTL_GEN=7" {
		t.Errorf("zsh watermark = %q", got)
	}
	if got := WatermarkCommand(envproto.ShellFish, 7); got != "set -gx ENVCTL_GEN 7" {
		t.Errorf("fish watermark = %q", got)
	}
}

func TestQuotePosixRoundTripShapes(t *testing.T) {
	// Each case: the quoted form must single-quote everything and
	// only break out for embedded single quotes.
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"", "''"},
		{"with space", "'with space'"},
		{"dollar$var", "'dollar$var'"},
		{"it's", `'it'\''s'`},
		{"''", `''\'''\'''`},
		{"back\\slash", "'back\\slash'"},
		{"new\nline", "'new\nline'"},
	}
	for _, tt := range tests {
		if got := QuotePosix(tt.in); got != tt.want {
			t.Errorf("QuotePosix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
