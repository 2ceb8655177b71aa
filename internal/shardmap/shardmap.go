// Package shardmap implements a "hash-by-key" string->key index: the map
// stores no string bytes of its own. Each bucket holds only the small
// integer keys that hashed to it; a lookup re-derives the candidate's bytes
// by asking an injected Resolver (the key->string vector) and byte-compares
// against it, so per-entry overhead is the width of one key.
//
// A Shard is deliberately just data plus an embedded RWMutex: the
// single-owner interner (pkg/intern.Interner) uses a Shard without ever
// taking its lock, since single-writer access is a caller precondition
// there; the concurrent interner (pkg/intern.ConcurrentInterner) drives the
// lock explicitly for its read-then-upgrade insertion sequence.
//
// © 2025 interncore authors. MIT License.
package shardmap

import (
	"bytes"
	"sync"
)

// Resolver returns the bytes backing key, and whether key is known at all.
// Implemented by the vector component in the owning interner.
type Resolver func(key uint64) ([]byte, bool)

// Shard is one hash-keyed bucket table. The zero value is not usable; use
// NewShard.
type Shard struct {
	mu      sync.RWMutex
	buckets map[uint64][]uint64
}

// NewShard constructs an empty Shard.
func NewShard() *Shard {
	return &Shard{buckets: make(map[uint64][]uint64)}
}

// NewShardSized constructs an empty Shard pre-sized for n expected entries.
func NewShardSized(n int) *Shard {
	if n <= 0 {
		return NewShard()
	}
	return &Shard{buckets: make(map[uint64][]uint64, n)}
}

// Lock/Unlock/RLock/RUnlock expose the shard's mutex directly so callers
// that need precise read-then-upgrade-to-write sequencing can drive it
// themselves; Find and Insert never lock internally.
func (s *Shard) Lock()    { s.mu.Lock() }
func (s *Shard) Unlock()  { s.mu.Unlock() }
func (s *Shard) RLock()   { s.mu.RLock() }
func (s *Shard) RUnlock() { s.mu.RUnlock() }

// Find looks for str among the keys bucketed under hash, resolving each
// candidate through resolve and comparing bytes. The caller must hold at
// least a read lock (or, for the single-owner interner, simply guarantee
// exclusive access).
func (s *Shard) Find(hash uint64, str []byte, resolve Resolver) (uint64, bool) {
	for _, k := range s.buckets[hash] {
		if b, ok := resolve(k); ok && bytes.Equal(b, str) {
			return k, true
		}
	}
	return 0, false
}

// Insert records that key hashes to hash. The caller must hold the write
// lock (or, for the single-owner interner, guarantee exclusive access).
func (s *Shard) Insert(hash uint64, key uint64) {
	s.buckets[hash] = append(s.buckets[hash], key)
}

// Len returns the number of keys recorded in the shard. Caller must hold at
// least a read lock for a consistent count under concurrent use.
func (s *Shard) Len() int {
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}
