// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"sort"

	"github.com/lawrencecchen/cmux-env/lib/envproto"
	"github.com/lawrencecchen/cmux-env/lib/paths"
)

// Action is one step a shell must take to converge on the current
// effective view: assign Value to Key, or unset Key.
type Action struct {
	Key   string
	Value string
	Unset bool
}

// Export computes the actions a shell must apply to move from the view
// it held at generation since (while sitting in prevPwd) to the
// current effective view at pwd. Returns the generation the snapshot
// was read at; the caller uses it as the shell's next watermark.
//
// Candidate keys come from two sources:
//
//   - keys whose last change is newer than since, in a scope that
//     covers pwd or prevPwd. The compacted log does not retain old
//     values, so these are re-emitted even when the change happens to
//     restore the value the shell already holds.
//   - keys whose current effective value differs between prevPwd and
//     pwd. These catch directory moves across overlay boundaries where
//     nothing changed in the store itself.
//
// A since beyond the current generation means the shell's watermark
// came from an earlier daemon life; the whole view is re-emitted.
//
// Actions are ordered deterministically: unsets sorted by key, then
// sets sorted by key.
func (s *Store) Export(pwd, prevPwd string, since uint64) (uint64, []Action, error) {
	pwdN, err := paths.Normalize(pwd)
	if err != nil {
		return 0, nil, envproto.Errorf(envproto.KindBadRequest, "invalid pwd %q: %v", pwd, err)
	}
	prevN := pwdN
	if prevPwd != "" {
		prevN, err = paths.Normalize(prevPwd)
		if err != nil {
			return 0, nil, envproto.Errorf(envproto.KindBadRequest, "invalid prev pwd %q: %v", prevPwd, err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if since > s.gen {
		since = 0
	}

	candidates := make(map[string]struct{})
	for gk, gen := range s.lastGen {
		if gen <= since {
			continue
		}
		if gk.dir == "" || isAncestor(gk.dir, pwdN) || isAncestor(gk.dir, prevN) {
			candidates[gk.key] = struct{}{}
		}
	}

	if prevN != pwdN {
		// Every key that ever existed has a log record, so the log's
		// key set is the full key universe for the transition diff.
		seen := make(map[string]struct{})
		for gk := range s.lastGen {
			if _, done := seen[gk.key]; done {
				continue
			}
			seen[gk.key] = struct{}{}
			curValue, curOK, _ := s.resolveLocked(gk.key, pwdN)
			prevValue, prevOK, _ := s.resolveLocked(gk.key, prevN)
			if curOK != prevOK || curValue != prevValue {
				candidates[gk.key] = struct{}{}
			}
		}
	}

	var actions []Action
	for key := range candidates {
		value, ok, _ := s.resolveLocked(key, pwdN)
		if ok {
			actions = append(actions, Action{Key: key, Value: value})
		} else {
			actions = append(actions, Action{Key: key, Unset: true})
		}
	}
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].Unset != actions[j].Unset {
			return actions[i].Unset
		}
		return actions[i].Key < actions[j].Key
	})
	return s.gen, actions, nil
}
