package intern

// concurrent.go implements the concurrent interner: many goroutines may
// call GetOrIntern/Resolve at once without any caller-side coordination.
//
// The string->key map is sharded (each shard an independent shardmap.Shard
// with its own RWMutex, selected by the low bits of the hash) so unrelated
// strings never contend on the same lock. The key->string vector is the
// same lock-free internal/blockvec.Vector the single-owner interner uses,
// since its per-slot atomics already make Resolve lock-free. The arena is
// wrapped in a single mutex: bump allocation is cheap enough, and rare
// enough relative to map lookups, that serializing it costs far less than
// sharding it would.
//
// © 2025 interncore authors. MIT License.

import (
	"fmt"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/solarflare/interncore/internal/arena"
	"github.com/solarflare/interncore/internal/blockvec"
	"github.com/solarflare/interncore/internal/shardmap"
	"github.com/solarflare/interncore/internal/unsafehelpers"
)

// ConcurrentInterner is the lock-free-read, sharded-write counterpart to
// Interner. Safe for concurrent use by multiple goroutines without any
// caller-side locking.
type ConcurrentInterner[K Key] struct {
	shards    []*shardmap.Shard
	shardMask uint64

	vector *blockvec.Vector

	arenaMu sync.Mutex
	arena   *arena.Arena

	counter atomic.Uint64 // next dense index to hand out

	hasher  Hasher
	metrics metricsSink
	logger  *zap.Logger

	fromIndex func(uint64) (K, bool)
}

// NewConcurrent constructs a concurrent interner using the default Key32
// flavor.
func NewConcurrent(opts ...Option) *ConcurrentInterner[Key32] {
	return newConcurrentInterner(Key32FromIndex, opts...)
}

// NewConcurrent8 constructs a concurrent interner using the Key8 flavor.
func NewConcurrent8(opts ...Option) *ConcurrentInterner[Key8] {
	return newConcurrentInterner(Key8FromIndex, opts...)
}

// NewConcurrent16 constructs a concurrent interner using the Key16 flavor.
func NewConcurrent16(opts ...Option) *ConcurrentInterner[Key16] {
	return newConcurrentInterner(Key16FromIndex, opts...)
}

// NewConcurrent64 constructs a concurrent interner using the Key64 flavor.
func NewConcurrent64(opts ...Option) *ConcurrentInterner[Key64] {
	return newConcurrentInterner(Key64FromIndex, opts...)
}

func newConcurrentInterner[K Key](fromIndex func(uint64) (K, bool), opts ...Option) *ConcurrentInterner[K] {
	cfg := mustApplyOptions(opts)

	// mustApplyOptions already rejected a non-zero, non-power-of-two shard
	// count; 0 means "pick a default".
	shards := cfg.shards
	if shards <= 0 {
		shards = nextPowerOfTwo(runtime.GOMAXPROCS(0) * 4)
	}

	ss := make([]*shardmap.Shard, shards)
	for i := range ss {
		ss[i] = shardmap.NewShardSized(cfg.capacity.Strings / shards)
	}

	var aOpts []arena.Option
	if cfg.limits.MaxBytes > 0 {
		aOpts = append(aOpts, arena.WithMemoryLimit(cfg.limits.MaxBytes))
	}
	if cfg.capacity.Bytes > 0 {
		aOpts = append(aOpts, arena.WithMinSlab(cfg.capacity.Bytes))
	}

	return &ConcurrentInterner[K]{
		shards:    ss,
		shardMask: uint64(shards - 1),
		vector:    blockvec.New(),
		arena:     arena.New(aOpts...),
		hasher:    cfg.hasher,
		metrics:   newMetricsSink(cfg.registry),
		logger:    cfg.logger,
		fromIndex: fromIndex,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (c *ConcurrentInterner[K]) shardFor(hash uint64) *shardmap.Shard {
	return c.shards[hash&c.shardMask]
}

func (c *ConcurrentInterner[K]) resolveIdx(idx uint64) ([]byte, bool) {
	return c.vector.Get(int(idx))
}

// Get returns the key already assigned to s, if any, without interning it.
func (c *ConcurrentInterner[K]) Get(s string) (K, bool) {
	var zero K
	b := unsafehelpers.StringToBytes(s)
	h := c.hasher.Hash(b)
	sh := c.shardFor(h)

	sh.RLock()
	idx, ok := sh.Find(h, b, c.resolveIdx)
	sh.RUnlock()
	if !ok {
		return zero, false
	}
	k, ok := c.fromIndex(idx)
	return k, ok
}

// Contains reports whether s has already been interned.
func (c *ConcurrentInterner[K]) Contains(s string) bool {
	_, ok := c.Get(s)
	return ok
}

// ContainsKey reports whether k was issued by this interner.
func (c *ConcurrentInterner[K]) ContainsKey(k K) bool {
	_, ok := c.TryResolve(k)
	return ok
}

// GetOrIntern interns s if it is not already present and returns its key:
// a read-locked probe; on miss, an arena store performed outside any shard
// lock; then a write-locked re-check, since another goroutine may have
// interned the same string in the meantime. A loser's arena copy is
// orphaned but never reclaimed — the arena never frees — so duplicate work
// under contention costs a bounded amount of memory, not correctness. The
// index counter only advances once the re-check has confirmed the string is
// genuinely new, so a key observable through the map is always resolvable
// through the vector.
func (c *ConcurrentInterner[K]) GetOrIntern(s string) (K, error) {
	var zero K
	b := unsafehelpers.StringToBytes(s)
	h := c.hasher.Hash(b)
	sh := c.shardFor(h)

	sh.RLock()
	idx, ok := sh.Find(h, b, c.resolveIdx)
	sh.RUnlock()
	if ok {
		c.metrics.incHit()
		k, _ := c.fromIndex(idx)
		return k, nil
	}
	c.metrics.incMiss()

	ref, err := c.store(b)
	if err != nil {
		c.logWriteFailure(err)
		return zero, translateArenaErr(err)
	}

	sh.Lock()
	defer sh.Unlock()

	if idx, ok := sh.Find(h, b, c.resolveIdx); ok {
		k, _ := c.fromIndex(idx)
		return k, nil
	}

	newIdx := c.counter.Add(1) - 1
	k, ok := c.fromIndex(newIdx)
	if !ok {
		// Restore the counter rather than leaving it advanced past a
		// reservation that was never published.
		c.counter.Add(^uint64(0))
		c.metrics.incKeySpaceExhausted()
		c.logger.Warn("intern: key space exhausted", zap.Uint64("index", newIdx))
		return zero, ErrKeySpaceExhausted
	}

	c.vector.SetAt(int(newIdx), ref)
	sh.Insert(h, newIdx)

	c.metrics.incInsert()
	c.metrics.setArenaBytes(c.CurrentMemoryUsage())
	return k, nil
}

func (c *ConcurrentInterner[K]) store(b []byte) ([]byte, error) {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	return c.arena.Store(b)
}

// Intern is GetOrIntern's infallible counterpart.
func (c *ConcurrentInterner[K]) Intern(s string) K {
	k, err := c.GetOrIntern(s)
	if err != nil {
		mustPanic("intern", err)
	}
	return k
}

// TryResolve returns the string backing k, and whether k is known at all.
// Lock-free: resolution never touches a shard's mutex, only the vector's
// per-slot atomics.
func (c *ConcurrentInterner[K]) TryResolve(k K) (string, bool) {
	ref, ok := c.vector.Get(int(k.index()))
	if !ok {
		return "", false
	}
	return unsafehelpers.BytesToString(ref), true
}

// Resolve returns the string backing k. It panics if k was not issued by
// this interner.
func (c *ConcurrentInterner[K]) Resolve(k K) string {
	s, ok := c.TryResolve(k)
	if !ok {
		mustPanic("resolve", fmt.Errorf("key not present"))
	}
	return s
}

// Len returns the number of distinct strings interned so far. Under
// concurrent insertion this is a snapshot, not a fence: by the time it
// returns, more strings may already have been interned.
func (c *ConcurrentInterner[K]) Len() int { return int(c.counter.Load()) }

// IsEmpty reports whether no strings have been interned yet.
func (c *ConcurrentInterner[K]) IsEmpty() bool { return c.counter.Load() == 0 }

// CurrentMemoryUsage returns the arena's current byte footprint.
func (c *ConcurrentInterner[K]) CurrentMemoryUsage() int64 {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	return c.arena.CurrentMemoryUsage()
}

// MaxMemoryUsage returns the arena's configured memory limit.
func (c *ConcurrentInterner[K]) MaxMemoryUsage() int64 {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	return c.arena.MaxMemoryUsage()
}

// SetMemoryLimit changes the memory limit at runtime.
func (c *ConcurrentInterner[K]) SetMemoryLimit(n int64) {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	c.arena.SetMemoryLimit(n)
}

// ToReader derives a Reader snapshotting this interner's current extent.
// The derived view is frozen at derivation time: it resolves every key and
// string present at that moment, and does not observe strings interned
// afterward.
func (c *ConcurrentInterner[K]) ToReader() *Reader[K] {
	n := int(c.counter.Load())
	return &Reader[K]{
		vector:    c.vector,
		fromIndex: c.fromIndex,
		n:         n,
		forward:   c.Get,
	}
}

// ToResolver derives a Resolver snapshotting this interner's current
// extent, in the key->string direction only.
func (c *ConcurrentInterner[K]) ToResolver() *Resolver[K] {
	n := int(c.counter.Load())
	return &Resolver[K]{vector: c.vector, fromIndex: c.fromIndex, n: n}
}

func (c *ConcurrentInterner[K]) logWriteFailure(err error) {
	c.logger.Warn("intern: store failed",
		zap.Error(err),
		zap.String("arena_bytes", humanize.Bytes(uint64(c.CurrentMemoryUsage()))),
		zap.String("arena_limit", humanize.Bytes(uint64(c.MaxMemoryUsage()))),
	)
}

// All iterates every (key, string) pair interned at the moment All is
// called, in ascending key order. Like Interner.All, the sequence is finite
// and each range over it starts a fresh pass from the lowest key.
func (c *ConcurrentInterner[K]) All() iter.Seq2[K, string] {
	return viewAll(c.vector, c.fromIndex, int(c.counter.Load()))
}
