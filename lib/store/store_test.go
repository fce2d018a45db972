// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"testing"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
)

func kindOf(t *testing.T, err error) envproto.ErrorKind {
	t.Helper()
	var protoErr *envproto.Error
	if !errors.As(err, &protoErr) {
		t.Fatalf("error %v is not an *envproto.Error", err)
	}
	return protoErr.Kind
}

func mustSet(t *testing.T, s *Store, dir, key, value string) uint64 {
	t.Helper()
	gen, err := s.Set(dir, key, value)
	if err != nil {
		t.Fatalf("Set(%q, %q, %q): %v", dir, key, value, err)
	}
	return gen
}

func mustGet(t *testing.T, s *Store, key, pwd string) (string, bool) {
	t.Helper()
	value, ok, err := s.Get(key, pwd)
	if err != nil {
		t.Fatalf("Get(%q, %q): %v", key, pwd, err)
	}
	return value, ok
}

func TestSetGetUnset(t *testing.T) {
	s := New()

	if gen := mustSet(t, s, "", "FOO", "bar"); gen != 1 {
		t.Fatalf("first set returned gen %d, want 1", gen)
	}
	if value, ok := mustGet(t, s, "FOO", "/anywhere"); !ok || value != "bar" {
		t.Fatalf("Get(FOO) = %q, %v; want \"bar\", true", value, ok)
	}

	if _, err := s.Unset("", "FOO"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if _, ok := mustGet(t, s, "FOO", "/anywhere"); ok {
		t.Fatal("FOO still defined after unset")
	}
}

func TestSetSameValueIsNoOp(t *testing.T) {
	s := New()
	first := mustSet(t, s, "", "FOO", "bar")
	second := mustSet(t, s, "", "FOO", "bar")
	if second != first {
		t.Fatalf("redundant set advanced gen from %d to %d", first, second)
	}
	if third := mustSet(t, s, "", "FOO", "baz"); third != first+1 {
		t.Fatalf("changing set returned gen %d, want %d", third, first+1)
	}
}

func TestUnsetAbsentKeyBumpsGenOnce(t *testing.T) {
	s := New()

	gen, err := s.Unset("", "NEVER_SET")
	if err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if gen != 1 {
		t.Fatalf("unset of absent key returned gen %d, want 1", gen)
	}

	// A second unset finds the tombstone already present.
	again, err := s.Unset("", "NEVER_SET")
	if err != nil {
		t.Fatalf("Unset (second): %v", err)
	}
	if again != gen {
		t.Fatalf("re-unset advanced gen from %d to %d", gen, again)
	}
}

func TestGenStrictlyIncreases(t *testing.T) {
	s := New()
	var last uint64
	for i, mutate := range []func() (uint64, error){
		func() (uint64, error) { return s.Set("", "A", "1") },
		func() (uint64, error) { return s.Set("/p", "A", "2") },
		func() (uint64, error) { return s.Unset("", "A") },
		func() (uint64, error) { return s.Set("", "B", "3") },
	} {
		gen, err := mutate()
		if err != nil {
			t.Fatalf("mutation %d: %v", i, err)
		}
		if gen <= last {
			t.Fatalf("mutation %d: gen %d did not advance past %d", i, gen, last)
		}
		last = gen
	}
}

func TestOverlayPrecedence(t *testing.T) {
	s := New()
	mustSet(t, s, "", "VAR", "global")
	mustSet(t, s, "/p/proj", "VAR", "local")

	tests := []struct {
		pwd  string
		want string
	}{
		{"/p/proj", "local"},
		{"/p/proj/sub", "local"},
		{"/p", "global"},
		{"/elsewhere", "global"},
		{"/p/project", "global"}, // sibling with shared string prefix is not inside /p/proj
	}
	for _, tt := range tests {
		value, ok := mustGet(t, s, "VAR", tt.pwd)
		if !ok || value != tt.want {
			t.Errorf("Get(VAR, %s) = %q, %v; want %q", tt.pwd, value, ok, tt.want)
		}
	}
}

func TestInnermostOverlayWins(t *testing.T) {
	s := New()
	mustSet(t, s, "/a", "K", "outer")
	mustSet(t, s, "/a/b", "K", "inner")

	if value, _ := mustGet(t, s, "K", "/a/b/c"); value != "inner" {
		t.Fatalf("Get(K, /a/b/c) = %q, want \"inner\"", value)
	}
	if value, _ := mustGet(t, s, "K", "/a/x"); value != "outer" {
		t.Fatalf("Get(K, /a/x) = %q, want \"outer\"", value)
	}

	// Inner overlay without the key falls through to the outer one.
	mustSet(t, s, "/a/b/c", "OTHER", "x")
	if value, _ := mustGet(t, s, "K", "/a/b/c"); value != "inner" {
		t.Fatalf("Get(K, /a/b/c) = %q, want \"inner\"", value)
	}
}

func TestDirTombstoneShadowsGlobal(t *testing.T) {
	s := New()
	mustSet(t, s, "", "VAR", "global")
	if _, err := s.Unset("/p/proj", "VAR"); err != nil {
		t.Fatalf("Unset: %v", err)
	}

	if _, ok := mustGet(t, s, "VAR", "/p/proj/sub"); ok {
		t.Fatal("VAR visible under /p/proj despite dir tombstone")
	}
	if value, ok := mustGet(t, s, "VAR", "/p"); !ok || value != "global" {
		t.Fatalf("Get(VAR, /p) = %q, %v; want \"global\", true", value, ok)
	}
}

func TestSetClearsTombstone(t *testing.T) {
	s := New()
	mustSet(t, s, "", "VAR", "one")
	if _, err := s.Unset("", "VAR"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	mustSet(t, s, "", "VAR", "two")
	if value, ok := mustGet(t, s, "VAR", "/"); !ok || value != "two" {
		t.Fatalf("Get(VAR) = %q, %v after re-set; want \"two\", true", value, ok)
	}
}

func TestInvalidNamesAndValues(t *testing.T) {
	s := New()

	for _, key := range []string{"", "1BAD", "WITH-DASH", "SP ACE", "DOT.TED"} {
		_, err := s.Set("", key, "v")
		if err == nil {
			t.Errorf("Set accepted invalid name %q", key)
			continue
		}
		if kind := kindOf(t, err); kind != envproto.KindInvalidName {
			t.Errorf("Set(%q) error kind = %s, want invalid-name", key, kind)
		}
	}

	_, err := s.Set("", "GOOD", "has\x00nul")
	if err == nil {
		t.Fatal("Set accepted value with embedded NUL")
	}
	if kind := kindOf(t, err); kind != envproto.KindInvalidValue {
		t.Fatalf("NUL value error kind = %s, want invalid-value", kind)
	}

	if got := s.Gen(); got != 0 {
		t.Fatalf("failed mutations advanced gen to %d", got)
	}
}

func TestScopePathNormalization(t *testing.T) {
	s := New()
	mustSet(t, s, "/p/proj/", "VAR", "v")
	mustSet(t, s, "/p/./proj/../proj/x", "VAR", "deep")

	if value, _ := mustGet(t, s, "VAR", "/p/proj"); value != "v" {
		t.Fatalf("trailing-slash scope did not normalize: got %q", value)
	}
	if value, _ := mustGet(t, s, "VAR", "/p/proj/x/y"); value != "deep" {
		t.Fatalf("dotted scope did not normalize: got %q", value)
	}

	info := s.Status()
	if info.Overlays != 2 {
		t.Fatalf("Overlays = %d, want 2 (normalized dirs should collapse)", info.Overlays)
	}
}

func TestList(t *testing.T) {
	s := New()
	mustSet(t, s, "", "B", "global-b")
	mustSet(t, s, "", "A", "global-a")
	mustSet(t, s, "/p", "B", "local-b")
	mustSet(t, s, "/p", "C", "local-c")
	if _, err := s.Unset("/p", "A"); err != nil {
		t.Fatalf("Unset: %v", err)
	}

	items, err := s.List("/p/sub")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []envproto.ListItem{
		{Key: "B", Value: "local-b", Scope: "/p"},
		{Key: "C", Value: "local-c", Scope: "/p"},
	}
	if len(items) != len(want) {
		t.Fatalf("List returned %d items, want %d: %+v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}

	// Outside the overlay the tombstone has no effect.
	items, err = s.List("/elsewhere")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Key != "A" || items[0].Scope != GlobalScope {
		t.Fatalf("List(/elsewhere) = %+v, want global A and B", items)
	}
}

func TestLoadAtomicity(t *testing.T) {
	s := New()
	mustSet(t, s, "", "KEEP", "original")
	before := s.Gen()

	_, err := s.Load("", []envproto.Entry{
		{Key: "A", Value: "1"},
		{Key: "bad key", Value: "2"},
	})
	if err == nil {
		t.Fatal("Load accepted invalid entry")
	}
	if kind := kindOf(t, err); kind != envproto.KindInvalidName {
		t.Fatalf("Load error kind = %s, want invalid-name", kind)
	}

	if got := s.Gen(); got != before {
		t.Fatalf("failed load moved gen from %d to %d", before, got)
	}
	if _, ok := mustGet(t, s, "A", "/"); ok {
		t.Fatal("failed load stored entry A")
	}
}

func TestLoadAppliesInOrder(t *testing.T) {
	s := New()
	gen, err := s.Load("", []envproto.Entry{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "2"},
		{Key: "A", Value: "override"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gen != 3 {
		t.Fatalf("Load returned gen %d, want 3", gen)
	}
	if value, _ := mustGet(t, s, "A", "/"); value != "override" {
		t.Fatalf("A = %q, want \"override\" (later entry wins)", value)
	}
}

func TestStatusCounts(t *testing.T) {
	s := New()
	mustSet(t, s, "", "A", "1")
	mustSet(t, s, "", "B", "2")
	mustSet(t, s, "/p", "C", "3")
	if _, err := s.Unset("/q", "D"); err != nil {
		t.Fatalf("Unset: %v", err)
	}

	info := s.Status()
	if info.Gen != 4 {
		t.Errorf("Gen = %d, want 4", info.Gen)
	}
	if info.Globals != 2 {
		t.Errorf("Globals = %d, want 2", info.Globals)
	}
	if info.Overlays != 2 {
		t.Errorf("Overlays = %d, want 2", info.Overlays)
	}
	if info.Tombstones != 1 {
		t.Errorf("Tombstones = %d, want 1", info.Tombstones)
	}
	if len(info.Scopes) != 2 || info.Scopes[0].Dir != "/p" || info.Scopes[0].Vars != 1 {
		t.Errorf("Scopes = %+v", info.Scopes)
	}
}
