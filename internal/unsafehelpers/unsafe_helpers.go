// Package unsafehelpers centralises every unavoidable usage of the `unsafe`
// standard-library package so the rest of interncore stays clean and easy
// to audit. Every helper documents its pre-/post-conditions.
//
// DISCLAIMER: these helpers deliberately break the Go memory-safety model
// for the sake of zero-allocation conversions. Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice. Misuse leads to subtle data races or corrupted strings.
//
// All functions are go:linkname-free, cgo-free and pure Go.
//
// © 2025 interncore authors. MIT License.

package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Zero-copy string/[]byte conversions
   ------------------------------------------------------------------------- */

// BytesToString converts an arena-owned byte slice to a string without
// allocating. The caller must guarantee the bytes are never modified for
// the lifetime of the resulting string: true of arena slices, which are
// never written to again once Store returns them. This is how Resolve
// avoids a copy on every call.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes re-interprets a string's data as a byte slice without
// copying. The slice MUST remain read-only: writing through it mutates
// immutable string storage and is undefined behaviour. Used by
// GetOrInternStatic to record a caller-provided reference directly in the
// vector, bypassing the arena copy.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

/* -------------------------------------------------------------------------
   2. Power-of-two helpers
   ------------------------------------------------------------------------- */

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
// Used to validate shard counts, which must be powers of two for the
// bit-mask shard selection in ConcurrentInterner.
func IsPowerOfTwo(x uint32) bool {
	return x != 0 && (x&(x-1)) == 0
}
