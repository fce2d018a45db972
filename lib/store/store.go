// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/paths"
)

// GlobalScope is the origin label reported for values resolved from
// the global map.
const GlobalScope = "global"

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether key is a legal variable name.
func ValidName(key string) bool {
	return namePattern.MatchString(key)
}

// entry is one slot in a scope map. A deleted entry is a tombstone:
// it shadows values in outer scopes and is retained so that export
// diffs can tell shells about the removal.
type entry struct {
	value   string
	deleted bool
}

// scopeMap holds the entries of one scope (the global map or one
// directory overlay).
type scopeMap map[string]entry

// genKey identifies a (scope, key) pair in the compacted generation
// log. An empty dir means the global scope.
type genKey struct {
	dir string
	key string
}

// Store is the authoritative in-memory state owned by the daemon.
type Store struct {
	mu       sync.RWMutex
	gen      uint64
	global   scopeMap
	overlays map[string]scopeMap
	lastGen  map[genKey]uint64
}

// New returns an empty store at generation 0.
func New() *Store {
	return &Store{
		global:   make(scopeMap),
		overlays: make(map[string]scopeMap),
		lastGen:  make(map[genKey]uint64),
	}
}

// Gen returns the current generation.
func (s *Store) Gen() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// normalizeDir validates and normalizes a scope directory. Empty
// means global and passes through unchanged.
func normalizeDir(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	normalized, err := paths.Normalize(dir)
	if err != nil {
		return "", envproto.Errorf(envproto.KindBadRequest, "invalid scope dir %q: %v", dir, err)
	}
	return normalized, nil
}

func validate(key, value string) error {
	if !ValidName(key) {
		return envproto.Errorf(envproto.KindInvalidName, "invalid variable name %q", key)
	}
	if strings.ContainsRune(value, 0) {
		return envproto.Errorf(envproto.KindInvalidValue, "value for %s contains NUL", key)
	}
	return nil
}

// scopeFor returns the entry map for dir, creating the overlay on
// first use. Caller holds the write lock.
func (s *Store) scopeFor(dir string) scopeMap {
	if dir == "" {
		return s.global
	}
	m, ok := s.overlays[dir]
	if !ok {
		m = make(scopeMap)
		s.overlays[dir] = m
	}
	return m
}

// bump advances the generation and records the change for (dir, key).
// Caller holds the write lock.
func (s *Store) bump(dir, key string) {
	next := s.gen + 1
	if next <= s.gen {
		// uint64 wrap would break every watermark in existence.
		panic(fmt.Sprintf("store: generation counter wrapped at %d", s.gen))
	}
	s.gen = next
	s.lastGen[genKey{dir: dir, key: key}] = next
}

// setLocked applies one set and reports whether it changed anything.
// Setting a key to its current live value is a no-op and does not
// advance the generation. Caller holds the write lock.
func (s *Store) setLocked(dir, key, value string) bool {
	m := s.scopeFor(dir)
	if existing, ok := m[key]; ok && !existing.deleted && existing.value == value {
		return false
	}
	m[key] = entry{value: value}
	s.bump(dir, key)
	return true
}

// Set inserts or replaces key in the given scope (empty dir means
// global) and returns the generation observable afterward.
func (s *Store) Set(dir, key, value string) (uint64, error) {
	if err := validate(key, value); err != nil {
		return 0, err
	}
	normalized, err := normalizeDir(dir)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(normalized, key, value)
	return s.gen, nil
}

// Unset records a tombstone for key in the given scope. The generation
// advances even when the key was absent, so a shell whose watermark
// predates the unset still learns the intent. Re-unsetting an existing
// tombstone is a no-op.
func (s *Store) Unset(dir, key string) (uint64, error) {
	if !ValidName(key) {
		return 0, envproto.Errorf(envproto.KindInvalidName, "invalid variable name %q", key)
	}
	normalized, err := normalizeDir(dir)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.scopeFor(normalized)
	if existing, ok := m[key]; ok && existing.deleted {
		return s.gen, nil
	}
	m[key] = entry{deleted: true}
	s.bump(normalized, key)
	return s.gen, nil
}

// Load applies entries to the given scope atomically: every entry is
// validated before the first mutation, so an invalid entry leaves the
// store (and its generation) untouched. Later entries win when a key
// repeats. Returns the generation observable after the last entry.
func (s *Store) Load(dir string, entries []envproto.Entry) (uint64, error) {
	normalized, err := normalizeDir(dir)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := validate(e.Key, e.Value); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.setLocked(normalized, e.Key, e.Value)
	}
	return s.gen, nil
}

// overlayChain returns the overlay dirs containing pwd, innermost
// first. Exact match sorts ahead of ancestors because it is the
// longest matching prefix. Caller holds a lock.
func (s *Store) overlayChain(pwd string) []string {
	var chain []string
	for dir := range s.overlays {
		if isAncestor(dir, pwd) {
			chain = append(chain, dir)
		}
	}
	sort.Slice(chain, func(i, j int) bool {
		if len(chain[i]) != len(chain[j]) {
			return len(chain[i]) > len(chain[j])
		}
		return chain[i] < chain[j]
	})
	return chain
}

// isAncestor reports whether dir equals pwd or is one of its lexical
// ancestors. Both arguments are normalized absolute paths.
func isAncestor(dir, pwd string) bool {
	if dir == pwd {
		return true
	}
	if dir == "/" {
		return true
	}
	return strings.HasPrefix(pwd, dir+"/")
}

// resolveLocked computes the effective value of key at pwd: innermost
// matching overlay first, tombstones shadowing outer scopes, global as
// the outermost layer. Returns the value, whether it is defined, and
// the origin scope label. Caller holds a lock.
func (s *Store) resolveLocked(key, pwd string) (value string, ok bool, origin string) {
	for _, dir := range s.overlayChain(pwd) {
		if e, present := s.overlays[dir][key]; present {
			if e.deleted {
				return "", false, dir
			}
			return e.value, true, dir
		}
	}
	if e, present := s.global[key]; present {
		if e.deleted {
			return "", false, GlobalScope
		}
		return e.value, true, GlobalScope
	}
	return "", false, ""
}

// Get returns the effective value of key at pwd.
func (s *Store) Get(key, pwd string) (string, bool, error) {
	if !ValidName(key) {
		return "", false, envproto.Errorf(envproto.KindInvalidName, "invalid variable name %q", key)
	}
	normalized, err := paths.Normalize(pwd)
	if err != nil {
		return "", false, envproto.Errorf(envproto.KindBadRequest, "invalid pwd %q: %v", pwd, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok, _ := s.resolveLocked(key, normalized)
	return value, ok, nil
}

// List returns the effective view at pwd, sorted by key, with the
// scope each value came from.
func (s *Store) List(pwd string) ([]envproto.ListItem, error) {
	normalized, err := paths.Normalize(pwd)
	if err != nil {
		return nil, envproto.Errorf(envproto.KindBadRequest, "invalid pwd %q: %v", pwd, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]struct{})
	for key := range s.global {
		keys[key] = struct{}{}
	}
	for _, dir := range s.overlayChain(normalized) {
		for key := range s.overlays[dir] {
			keys[key] = struct{}{}
		}
	}

	items := make([]envproto.ListItem, 0, len(keys))
	for key := range keys {
		value, ok, origin := s.resolveLocked(key, normalized)
		if !ok {
			continue
		}
		items = append(items, envproto.ListItem{Key: key, Value: value, Scope: origin})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

// Status summarizes the store for the status command.
func (s *Store) Status() envproto.StatusInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := envproto.StatusInfo{
		Gen:      s.gen,
		Overlays: len(s.overlays),
	}
	for _, e := range s.global {
		if e.deleted {
			info.Tombstones++
		} else {
			info.Globals++
		}
	}
	dirs := make([]string, 0, len(s.overlays))
	for dir := range s.overlays {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		live := 0
		for _, e := range s.overlays[dir] {
			if e.deleted {
				info.Tombstones++
			} else {
				live++
			}
		}
		info.Scopes = append(info.Scopes, envproto.ScopeCount{Dir: dir, Vars: live})
	}
	return info
}
