package intern

// interner.go implements the single-owner interner: an arena, a
// hash-by-key string->key map, and a key->string vector combined to give
// O(1) amortized insertion and O(1) resolution under a single-writer
// precondition. No internal locking is performed — concurrent access from
// multiple goroutines requires ConcurrentInterner (concurrent.go) instead.
// Structured logging happens only off the hot path; hit/miss metrics are
// recorded on every GetOrIntern call.
//
// © 2025 interncore authors. MIT License.

import (
	"errors"
	"fmt"
	"iter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/solarflare/interncore/internal/arena"
	"github.com/solarflare/interncore/internal/blockvec"
	"github.com/solarflare/interncore/internal/shardmap"
	"github.com/solarflare/interncore/internal/unsafehelpers"
)

// Interner is a single-owner, single-threaded-write bidirectional index
// between strings and dense integer keys. Exclusive mutable access is a
// caller precondition.
type Interner[K Key] struct {
	arena   *arena.Arena
	shard   *shardmap.Shard
	vector  *blockvec.Vector
	hasher  Hasher
	metrics metricsSink
	logger  *zap.Logger

	fromIndex func(uint64) (K, bool)
	capHint   Capacity
	count     int
}

// New constructs a single-owner interner using the default Key32 flavor,
// addressing up to ~4 billion distinct strings.
func New(opts ...Option) *Interner[Key32] {
	return newInterner(Key32FromIndex, opts...)
}

// New8 constructs a single-owner interner addressing up to 255 distinct
// strings — the narrowest concrete key flavor.
func New8(opts ...Option) *Interner[Key8] { return newInterner(Key8FromIndex, opts...) }

// New16 constructs a single-owner interner addressing up to 65535 distinct
// strings.
func New16(opts ...Option) *Interner[Key16] { return newInterner(Key16FromIndex, opts...) }

// New64 constructs a single-owner interner addressing up to 2^64-1 distinct
// strings — the pointer-width flavor.
func New64(opts ...Option) *Interner[Key64] { return newInterner(Key64FromIndex, opts...) }

func newInterner[K Key](fromIndex func(uint64) (K, bool), opts ...Option) *Interner[K] {
	cfg := mustApplyOptions(opts)

	var aOpts []arena.Option
	if cfg.limits.MaxBytes > 0 {
		aOpts = append(aOpts, arena.WithMemoryLimit(cfg.limits.MaxBytes))
	}
	if cfg.capacity.Bytes > 0 {
		aOpts = append(aOpts, arena.WithMinSlab(cfg.capacity.Bytes))
	}

	return &Interner[K]{
		arena:     arena.New(aOpts...),
		shard:     shardmap.NewShardSized(cfg.capacity.Strings),
		vector:    blockvec.New(),
		hasher:    cfg.hasher,
		metrics:   newMetricsSink(cfg.registry),
		logger:    cfg.logger,
		fromIndex: fromIndex,
		capHint:   cfg.capacity,
	}
}

func (in *Interner[K]) resolveIdx(idx uint64) ([]byte, bool) {
	return in.vector.Get(int(idx))
}

// Get returns the key already assigned to s, if any, without interning it.
func (in *Interner[K]) Get(s string) (K, bool) {
	var zero K
	b := unsafehelpers.StringToBytes(s)
	h := in.hasher.Hash(b)
	idx, ok := in.shard.Find(h, b, in.resolveIdx)
	if !ok {
		return zero, false
	}
	k, ok := in.fromIndex(idx)
	return k, ok
}

// Contains reports whether s has already been interned.
func (in *Interner[K]) Contains(s string) bool {
	_, ok := in.Get(s)
	return ok
}

// ContainsKey reports whether k was issued by this interner.
func (in *Interner[K]) ContainsKey(k K) bool {
	_, ok := in.TryResolve(k)
	return ok
}

// GetOrIntern interns s if it is not already present and returns its key:
// probe the hash-by-key map; on miss, copy into the arena, derive the next
// key from the count of strings interned so far, append, insert, and return
// it.
func (in *Interner[K]) GetOrIntern(s string) (K, error) {
	var zero K
	b := unsafehelpers.StringToBytes(s)
	h := in.hasher.Hash(b)

	if idx, ok := in.shard.Find(h, b, in.resolveIdx); ok {
		in.metrics.incHit()
		k, _ := in.fromIndex(idx)
		return k, nil
	}
	in.metrics.incMiss()

	ref, err := in.arena.Store(b)
	if err != nil {
		in.logWriteFailure(err)
		return zero, translateArenaErr(err)
	}
	return in.publish(h, ref)
}

// GetOrInternStatic interns s using the caller-supplied backing bytes
// directly, bypassing the arena copy. The caller must guarantee s outlives
// this interner. The resulting key is indistinguishable from one produced
// by GetOrIntern. The memory limit is not charged.
func (in *Interner[K]) GetOrInternStatic(s string) (K, error) {
	b := unsafehelpers.StringToBytes(s)
	h := in.hasher.Hash(b)

	if idx, ok := in.shard.Find(h, b, in.resolveIdx); ok {
		in.metrics.incHit()
		k, _ := in.fromIndex(idx)
		return k, nil
	}
	in.metrics.incMiss()
	return in.publish(h, b)
}

// publish assigns the next dense key to ref (already arena-resident or a
// static reference) and installs it in both the vector and the map.
func (in *Interner[K]) publish(hash uint64, ref []byte) (K, error) {
	var zero K
	idx := uint64(in.count)
	k, ok := in.fromIndex(idx)
	if !ok {
		in.metrics.incKeySpaceExhausted()
		in.logger.Warn("intern: key space exhausted", zap.Uint64("index", idx))
		return zero, ErrKeySpaceExhausted
	}

	in.vector.SetAt(int(idx), ref)
	in.shard.Insert(hash, idx)
	in.count++

	in.metrics.incInsert()
	in.metrics.setArenaBytes(in.arena.CurrentMemoryUsage())
	return k, nil
}

// Intern is GetOrIntern's infallible counterpart: it panics instead of
// returning an error. Using it is a caller contract that the memory-limit
// and key-space conditions cannot occur.
func (in *Interner[K]) Intern(s string) K {
	k, err := in.GetOrIntern(s)
	if err != nil {
		mustPanic("intern", err)
	}
	return k
}

// TryResolve returns the bytes backing k, and whether k is known at all.
func (in *Interner[K]) TryResolve(k K) (string, bool) {
	ref, ok := in.vector.Get(int(k.index()))
	if !ok {
		return "", false
	}
	return unsafehelpers.BytesToString(ref), true
}

// Resolve returns the string backing k. It panics if k was not issued by
// this interner.
func (in *Interner[K]) Resolve(k K) string {
	s, ok := in.TryResolve(k)
	if !ok {
		mustPanic("resolve", fmt.Errorf("key not present"))
	}
	return s
}

// Len returns the number of distinct strings interned so far.
func (in *Interner[K]) Len() int { return in.count }

// IsEmpty reports whether no strings have been interned yet.
func (in *Interner[K]) IsEmpty() bool { return in.count == 0 }

// Capacity returns the capacity hint this interner was constructed with.
func (in *Interner[K]) Capacity() Capacity { return in.capHint }

// CurrentMemoryUsage returns the arena's current byte footprint.
func (in *Interner[K]) CurrentMemoryUsage() int64 { return in.arena.CurrentMemoryUsage() }

// MaxMemoryUsage returns the arena's configured memory limit.
func (in *Interner[K]) MaxMemoryUsage() int64 { return in.arena.MaxMemoryUsage() }

// SetMemoryLimit changes the memory limit at runtime. Lowering the limit
// below CurrentMemoryUsage never invalidates already-interned strings; only
// a later store that would grow the arena past the new limit fails.
func (in *Interner[K]) SetMemoryLimit(n int64) { in.arena.SetMemoryLimit(n) }

// All iterates every (key, string) pair in ascending key order — insertion
// order of distinct strings. The sequence is finite; each range over it
// starts a fresh pass from the lowest key.
func (in *Interner[K]) All() iter.Seq2[K, string] {
	return viewAll(in.vector, in.fromIndex, in.count)
}

// Clone deep-copies this interner: a fresh arena, with the map and vector
// rebuilt to point into it. Insertion order is preserved, so keys in the
// clone match the original exactly. The clone
// carries forward the same Capacity hint and MemoryLimits the original was
// constructed (or later adjusted, via SetMemoryLimit) with, so a
// memory-bounded interner doesn't silently become unbounded once cloned.
func (in *Interner[K]) Clone() (*Interner[K], error) {
	clone := newInterner(in.fromIndex,
		WithCapacity(in.capHint),
		WithMemoryLimit(in.arena.MaxMemoryUsage()),
	)
	clone.hasher = in.hasher

	for k, s := range in.All() {
		if _, err := clone.GetOrIntern(s); err != nil {
			return nil, fmt.Errorf("intern: clone failed at key %v: %w", k, err)
		}
	}
	return clone, nil
}

// ToReader derives a read-only Reader over this interner's current extent.
// The owner must not continue mutating the
// interner from another goroutine while the Reader is shared with one —
// single-owner access is a precondition this package cannot enforce across
// the handoff. Use ConcurrentInterner if that guarantee can't be made.
func (in *Interner[K]) ToReader() *Reader[K] {
	return &Reader[K]{
		vector:    in.vector,
		fromIndex: in.fromIndex,
		n:         in.count,
		forward:   in.Get,
	}
}

// ToResolver derives a read-only Resolver — the key->string direction only,
// the minimum-footprint view — over this interner's current extent.
func (in *Interner[K]) ToResolver() *Resolver[K] {
	return &Resolver[K]{vector: in.vector, fromIndex: in.fromIndex, n: in.count}
}

func (in *Interner[K]) logWriteFailure(err error) {
	in.logger.Warn("intern: store failed",
		zap.Error(err),
		zap.String("arena_bytes", humanize.Bytes(uint64(in.arena.CurrentMemoryUsage()))),
		zap.String("arena_limit", humanize.Bytes(uint64(in.arena.MaxMemoryUsage()))),
	)
}

func translateArenaErr(err error) error {
	switch {
	case errors.Is(err, arena.ErrMemoryLimitReached):
		return ErrMemoryLimitReached
	case errors.Is(err, arena.ErrFailedAllocation):
		return ErrFailedAllocation
	default:
		return err
	}
}
