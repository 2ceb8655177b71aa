package intern

// hash.go defines the Hasher seam the hash-by-key index depends on, and a
// default implementation. The hash algorithm is a pluggable collaborator,
// not part of the core: callers may swap it out via WithHasher without
// touching the interner's insertion or lookup logic. The default is
// github.com/cespare/xxhash/v2.
//
// © 2025 interncore authors. MIT License.

import "github.com/cespare/xxhash/v2"

// Hasher computes a 64-bit hash of a candidate string's bytes. Implementations
// must be deterministic within a single process run; determinism across
// runs is not required unless the caller wants reproducible key assignment
// and seeds the hasher accordingly.
type Hasher interface {
	Hash(b []byte) uint64
}

// defaultHasher wraps cespare/xxhash/v2, a fast, high-quality,
// allocation-free 64-bit hash.
type defaultHasher struct{}

func (defaultHasher) Hash(b []byte) uint64 { return xxhash.Sum64(b) }

// DefaultHasher returns the interner's built-in Hasher.
func DefaultHasher() Hasher { return defaultHasher{} }
