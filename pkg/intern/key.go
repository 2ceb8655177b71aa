package intern

// key.go implements the Key capability: a small, cheap, hashable,
// equality-comparable value convertible losslessly to and from a
// non-negative integer index, with a reserved sentinel for "no key". The
// four flavors are fixed-width newtypes satisfying one small interface,
// differing only in how many distinct strings they can address.
//
// © 2025 interncore authors. MIT License.

import "math"

// Key converts to and from a dense, non-negative integer index. Every
// flavor reserves the raw value 0 — stored as a
// zero value of the flavor's underlying type — for "no key", so an absent
// key and a present key occupy the same storage footprint at external
// boundaries (niche optimization).
type Key interface {
	comparable

	// index returns the key's zero-based position in the key->string
	// vector. Implementations subtract one to undo the reserved-zero
	// offset.
	index() uint64
}

// Key8 addresses up to 255 distinct strings (raw values 1..255 carrying
// indices 0..254; raw 0 is reserved).
type Key8 uint8

// Key16 addresses up to 65535 distinct strings.
type Key16 uint16

// Key32 addresses up to 2^32-1 distinct strings. This is the default flavor
// used by Interner and ConcurrentInterner.
type Key32 uint32

// Key64 addresses up to 2^64-1 distinct strings (pointer-width on every
// platform interncore targets).
type Key64 uint64

func (k Key8) index() uint64  { return uint64(k) - 1 }
func (k Key16) index() uint64 { return uint64(k) - 1 }
func (k Key32) index() uint64 { return uint64(k) - 1 }
func (k Key64) index() uint64 { return uint64(k) - 1 }

// tryKeyFromIndex returns the key flavor K representing the dense
// zero-based index i, or false if
// i exceeds what K can represent once the reserved-zero sentinel is
// accounted for.
func tryKeyFromIndex[K Key](i uint64, maxRaw uint64, wrap func(uint64) K) (K, bool) {
	var zero K
	raw := i + 1 // shift past the reserved sentinel
	if raw == 0 || raw > maxRaw {
		return zero, false
	}
	return wrap(raw), true
}

// Key8FromIndex converts a zero-based index to a Key8, or false when the
// index exceeds what Key8 can represent.
func Key8FromIndex(i uint64) (Key8, bool) {
	return tryKeyFromIndex(i, uint64(math.MaxUint8), func(raw uint64) Key8 { return Key8(raw) })
}

// Key16FromIndex converts a zero-based index to a Key16.
func Key16FromIndex(i uint64) (Key16, bool) {
	return tryKeyFromIndex(i, uint64(math.MaxUint16), func(raw uint64) Key16 { return Key16(raw) })
}

// Key32FromIndex converts a zero-based index to a Key32.
func Key32FromIndex(i uint64) (Key32, bool) {
	return tryKeyFromIndex(i, uint64(math.MaxUint32), func(raw uint64) Key32 { return Key32(raw) })
}

// Key64FromIndex converts a zero-based index to a Key64.
func Key64FromIndex(i uint64) (Key64, bool) {
	return tryKeyFromIndex(i, uint64(math.MaxUint64), func(raw uint64) Key64 { return Key64(raw) })
}

// IntoIndex returns k's zero-based index into the key->string vector.
func IntoIndex[K Key](k K) uint64 { return k.index() }
