// Copyright 2026 The cmux-env Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the daemon's state engine: the global
// variable map, per-directory overlay maps with tombstones, the
// monotonic generation counter, and the since-filtered export diff
// that shell hooks apply at each prompt.
//
// All state lives in memory. Mutations are serialized by a write lock
// so generation assignment is totally ordered; reads run concurrently
// under the read lock and observe a consistent snapshot.
//
// The generation log is kept in compacted form: only the generation
// of each (scope, key)'s most recent change is retained. That is
// sufficient to compute export diffs without replaying history.
package store
