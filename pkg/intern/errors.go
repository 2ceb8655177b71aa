package intern

// errors.go declares the three sentinel error kinds every fallible
// operation reports: surfaced uniformly at the innermost operation that
// detects them, and translated to panics by the infallible variants. Plain
// errors.New values, checked with errors.Is.
//
// © 2025 interncore authors. MIT License.

import (
	"errors"
	"fmt"
)

var (
	// ErrMemoryLimitReached means the arena's configured byte cap would be
	// exceeded by the requested store.
	ErrMemoryLimitReached = errors.New("intern: memory limit reached")

	// ErrKeySpaceExhausted means the configured key flavor cannot represent
	// the next dense index.
	ErrKeySpaceExhausted = errors.New("intern: key space exhausted")

	// ErrFailedAllocation means the host allocator refused a request.
	ErrFailedAllocation = errors.New("intern: allocation failed")
)

// Config validation sentinels, checked by applyOptions at construction
// time.
var (
	errInvalidCapacity    = errors.New("intern: capacity must be non-negative")
	errInvalidMemoryLimit = errors.New("intern: memory limit must be non-negative")
	errInvalidShardCount  = errors.New("intern: shard count must be a positive power of two")
)

// mustPanic wraps err with context and panics, used by the infallible
// Intern/Resolve variants whose callers contract that the error conditions
// cannot occur.
func mustPanic(op string, err error) {
	panic(fmt.Errorf("intern: %s: %w", op, err))
}
