package intern

// reader.go implements the two derived read-only views: Reader, which
// supports both directions (string->key and key->string), and Resolver,
// the key->string direction only, for callers that never need forward
// lookups and want the smallest possible footprint.
//
// Both views are one-way transitions: once derived, there is no path back
// to a mutable Interner/ConcurrentInterner from a Reader or Resolver. Both
// snapshot the key range they cover at the moment of derivation — later
// insertions into the source interner are invisible to an already-derived
// view, though the underlying vector slots a view does cover remain valid
// for its entire lifetime, since the arena never relocates or frees.
// Resolution paths take no lock at all; Get on a Reader derived from a
// ConcurrentInterner goes through that interner's Get, which takes the
// owning shard's read lock.
//
// © 2025 interncore authors. MIT License.

import (
	"fmt"
	"iter"

	"github.com/solarflare/interncore/internal/blockvec"
	"github.com/solarflare/interncore/internal/unsafehelpers"
)

// Reader is a read-only, shareable view supporting both Get (string->key)
// and Resolve (key->string), derived from an Interner or ConcurrentInterner
// via ToReader.
type Reader[K Key] struct {
	vector    *blockvec.Vector
	fromIndex func(uint64) (K, bool)
	n         int
	forward   func(string) (K, bool)
}

// Get returns the key assigned to s within this view's snapshot, if any.
// Strings interned into the source after this view was derived are not
// visible, even though the shared index may already know them.
func (r *Reader[K]) Get(s string) (K, bool) {
	k, ok := r.forward(s)
	if !ok || k.index() >= uint64(r.n) {
		var zero K
		return zero, false
	}
	return k, true
}

// Contains reports whether s was interned within this view's snapshot.
func (r *Reader[K]) Contains(s string) bool {
	_, ok := r.Get(s)
	return ok
}

// TryResolve returns the string backing k, and whether k falls within this
// view's snapshot.
func (r *Reader[K]) TryResolve(k K) (string, bool) {
	if k.index() >= uint64(r.n) {
		return "", false
	}
	ref, ok := r.vector.Get(int(k.index()))
	if !ok {
		return "", false
	}
	return unsafehelpers.BytesToString(ref), true
}

// Resolve returns the string backing k. It panics if k falls outside this
// view's snapshot.
func (r *Reader[K]) Resolve(k K) string {
	s, ok := r.TryResolve(k)
	if !ok {
		mustPanic("resolve", fmt.Errorf("key not present"))
	}
	return s
}

// ContainsKey reports whether k falls within this view's snapshot.
func (r *Reader[K]) ContainsKey(k K) bool {
	_, ok := r.TryResolve(k)
	return ok
}

// Len returns the number of distinct strings covered by this view.
func (r *Reader[K]) Len() int { return r.n }

// ToResolver narrows this Reader to a key->string-only Resolver, discarding
// the forward lookup closure.
func (r *Reader[K]) ToResolver() *Resolver[K] {
	return &Resolver[K]{vector: r.vector, fromIndex: r.fromIndex, n: r.n}
}

// All iterates every (key, string) pair covered by this view, in ascending
// key order. Finite; each range over it starts a fresh pass.
func (r *Reader[K]) All() iter.Seq2[K, string] {
	return viewAll(r.vector, r.fromIndex, r.n)
}

// Resolver is the minimum-footprint read-only view: key->string resolution
// only, derived via ToResolver. It carries no reference to the string->key
// map at all.
type Resolver[K Key] struct {
	vector    *blockvec.Vector
	fromIndex func(uint64) (K, bool)
	n         int
}

// TryResolve returns the string backing k, and whether k falls within this
// view's snapshot.
func (r *Resolver[K]) TryResolve(k K) (string, bool) {
	if k.index() >= uint64(r.n) {
		return "", false
	}
	ref, ok := r.vector.Get(int(k.index()))
	if !ok {
		return "", false
	}
	return unsafehelpers.BytesToString(ref), true
}

// Resolve returns the string backing k. It panics if k falls outside this
// view's snapshot.
func (r *Resolver[K]) Resolve(k K) string {
	s, ok := r.TryResolve(k)
	if !ok {
		mustPanic("resolve", fmt.Errorf("key not present"))
	}
	return s
}

// ContainsKey reports whether k falls within this view's snapshot.
func (r *Resolver[K]) ContainsKey(k K) bool {
	_, ok := r.TryResolve(k)
	return ok
}

// Len returns the number of distinct strings covered by this view.
func (r *Resolver[K]) Len() int { return r.n }

// All iterates every (key, string) pair covered by this view, in ascending
// key order. Finite; each range over it starts a fresh pass.
func (r *Resolver[K]) All() iter.Seq2[K, string] {
	return viewAll(r.vector, r.fromIndex, r.n)
}

func viewAll[K Key](vector *blockvec.Vector, fromIndex func(uint64) (K, bool), n int) iter.Seq2[K, string] {
	return func(yield func(K, string) bool) {
		for i := 0; i < n; i++ {
			ref, ok := vector.Get(i)
			if !ok {
				continue
			}
			k, ok := fromIndex(uint64(i))
			if !ok {
				continue
			}
			if !yield(k, unsafehelpers.BytesToString(ref)) {
				return
			}
		}
	}
}
