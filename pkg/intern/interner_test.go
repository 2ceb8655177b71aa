package intern

import (
	"errors"
	"strings"
	"testing"
)

func TestInterner_EmptyInterner(t *testing.T) {
	in := New()
	if !in.IsEmpty() {
		t.Fatalf("fresh interner reports non-empty")
	}
	if in.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", in.Len())
	}
	if _, ok := in.Get("anything"); ok {
		t.Fatalf("Get() on empty interner reported a hit")
	}
}

func TestInterner_SingleInsert(t *testing.T) {
	in := New()
	k, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("GetOrIntern() error = %v", err)
	}
	if in.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", in.Len())
	}
	if got := in.Resolve(k); got != "hello" {
		t.Fatalf("Resolve() = %q, want %q", got, "hello")
	}
}

func TestInterner_DuplicateInsertReturnsSameKey(t *testing.T) {
	in := New()
	k1, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("GetOrIntern() error = %v", err)
	}
	k2, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("GetOrIntern() error = %v", err)
	}
	if k1 != k2 {
		t.Fatalf("interning the same string twice returned different keys: %v != %v", k1, k2)
	}
	if in.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate insert", in.Len())
	}
}

func TestInterner_TwoDistinctStringsGetDistinctKeys(t *testing.T) {
	in := New()
	k1, _ := in.GetOrIntern("foo")
	k2, _ := in.GetOrIntern("bar")
	if k1 == k2 {
		t.Fatalf("distinct strings got the same key: %v", k1)
	}
	if in.Resolve(k1) != "foo" || in.Resolve(k2) != "bar" {
		t.Fatalf("resolution mismatch: %q / %q", in.Resolve(k1), in.Resolve(k2))
	}
}

func TestInterner_EmptyStringIsFree(t *testing.T) {
	in := New(WithMemoryLimit(1))
	k, err := in.GetOrIntern("")
	if err != nil {
		t.Fatalf("GetOrIntern(\"\") error = %v, want nil even under a tiny memory limit", err)
	}
	if in.Resolve(k) != "" {
		t.Fatalf("Resolve() = %q, want empty string", in.Resolve(k))
	}
	if in.CurrentMemoryUsage() != 0 {
		t.Fatalf("CurrentMemoryUsage() = %d, want 0 after only interning the empty string", in.CurrentMemoryUsage())
	}
}

func TestInterner_MemoryLimitExhaustion(t *testing.T) {
	in := New(WithCapacity(Capacity{Bytes: 5}), WithMemoryLimit(5))
	k, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("first store should exactly fill the slab, got error %v", err)
	}
	if _, err := in.GetOrIntern("world"); !errors.Is(err, ErrMemoryLimitReached) {
		t.Fatalf("GetOrIntern() error = %v, want ErrMemoryLimitReached", err)
	}
	// The failed insert left no partial state behind: the interner stays
	// usable and the already-interned string keeps its key.
	again, err := in.GetOrIntern("hello")
	if err != nil || again != k {
		t.Fatalf("GetOrIntern(%q) after a refused insert = (%v, %v), want (%v, nil)", "hello", again, err, k)
	}
	if in.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after a refused insert", in.Len())
	}
}

func TestInterner_MemoryLimitBelowDefaultSlabSize(t *testing.T) {
	// No Capacity hint: the arena's default minimum slab is much larger
	// than the limit, and the first store must still succeed by clamping
	// the slab down to the budget.
	in := New(WithMemoryLimit(1024))
	k, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("GetOrIntern() under a 1 KiB limit error = %v, want nil", err)
	}
	if in.Resolve(k) != "hello" {
		t.Fatalf("Resolve() mismatch")
	}
	if in.CurrentMemoryUsage() > 1024 {
		t.Fatalf("CurrentMemoryUsage() = %d, want <= 1024", in.CurrentMemoryUsage())
	}
}

func TestInterner_KeySpaceExhaustionWithKey8(t *testing.T) {
	in := New8()
	for i := 0; i < 255; i++ {
		if _, err := in.GetOrIntern(string(rune('a' + i%26)) + string(rune('0'+i/26))); err != nil {
			t.Fatalf("unexpected error at insert %d: %v", i, err)
		}
	}
	if _, err := in.GetOrIntern("one-too-many"); !errors.Is(err, ErrKeySpaceExhausted) {
		t.Fatalf("GetOrIntern() error = %v, want ErrKeySpaceExhausted", err)
	}
}

func TestInterner_ResolvePanicsOnUnknownKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Resolve() on an unknown key did not panic")
		}
	}()
	in := New()
	in.Resolve(Key32(999))
}

func TestInterner_TryResolveUnknownKey(t *testing.T) {
	in := New()
	if _, ok := in.TryResolve(Key32(999)); ok {
		t.Fatalf("TryResolve() reported a hit for an unknown key")
	}
}

func TestInterner_GetOrInternStaticBypassesArena(t *testing.T) {
	in := New(WithMemoryLimit(1))
	long := "this string is far larger than the one-byte memory limit"
	k, err := in.GetOrInternStatic(long)
	if err != nil {
		t.Fatalf("GetOrInternStatic() error = %v, want nil (arena copy is bypassed)", err)
	}
	if in.Resolve(k) != long {
		t.Fatalf("Resolve() after GetOrInternStatic mismatch")
	}
	if in.CurrentMemoryUsage() != 0 {
		t.Fatalf("CurrentMemoryUsage() = %d, want 0 (static strings aren't arena-charged)", in.CurrentMemoryUsage())
	}
}

func TestInterner_InternPanicsOnFailure(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Intern() did not panic on a failing insert")
		}
	}()
	in := New(WithCapacity(Capacity{Bytes: 1}), WithMemoryLimit(1))
	in.Intern("way too long to fit")
}

func TestInterner_AllIteratesInInsertionOrder(t *testing.T) {
	in := New()
	want := []string{"alpha", "beta", "gamma"}
	for _, s := range want {
		if _, err := in.GetOrIntern(s); err != nil {
			t.Fatalf("GetOrIntern(%q) error = %v", s, err)
		}
	}

	var got []string
	for _, s := range in.All() {
		got = append(got, s)
	}
	if len(got) != len(want) {
		t.Fatalf("All() yielded %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInterner_Clone(t *testing.T) {
	in := New()
	k1, _ := in.GetOrIntern("foo")
	k2, _ := in.GetOrIntern("bar")

	clone, err := in.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if clone.Resolve(k1) != "foo" || clone.Resolve(k2) != "bar" {
		t.Fatalf("clone resolution mismatch")
	}
	if _, err := in.GetOrIntern("baz"); err != nil {
		t.Fatalf("GetOrIntern() on original error = %v", err)
	}
	if clone.Contains("baz") {
		t.Fatalf("mutating the original should not affect the clone")
	}
}

func TestInterner_ClonePreservesMemoryLimit(t *testing.T) {
	in := New(WithCapacity(Capacity{Bytes: 5}), WithMemoryLimit(5))
	if _, err := in.GetOrIntern("hello"); err != nil {
		t.Fatalf("GetOrIntern() error = %v", err)
	}

	clone, err := in.Clone()
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if clone.MaxMemoryUsage() != in.MaxMemoryUsage() {
		t.Fatalf("Clone() MaxMemoryUsage() = %d, want %d (same as source)", clone.MaxMemoryUsage(), in.MaxMemoryUsage())
	}
	if _, err := clone.GetOrIntern("world"); !errors.Is(err, ErrMemoryLimitReached) {
		t.Fatalf("clone of a memory-bounded interner should stay bounded, GetOrIntern() error = %v, want ErrMemoryLimitReached", err)
	}
}

func TestInterner_ToReaderAndToResolver(t *testing.T) {
	in := New()
	k, _ := in.GetOrIntern("hello")

	r := in.ToReader()
	if got, ok := r.Get("hello"); !ok || got != k {
		t.Fatalf("Reader.Get() = (%v, %v), want (%v, true)", got, ok, k)
	}
	if r.Resolve(k) != "hello" {
		t.Fatalf("Reader.Resolve() mismatch")
	}

	res := r.ToResolver()
	if res.Resolve(k) != "hello" {
		t.Fatalf("Resolver.Resolve() mismatch")
	}

	direct := in.ToResolver()
	if direct.Resolve(k) != "hello" {
		t.Fatalf("Interner.ToResolver().Resolve() mismatch")
	}
}

func TestInterner_SetMemoryLimitDoesNotInvalidateExisting(t *testing.T) {
	in := New()
	k, err := in.GetOrIntern("hello")
	if err != nil {
		t.Fatalf("GetOrIntern() error = %v", err)
	}
	in.SetMemoryLimit(1)
	if in.Resolve(k) != "hello" {
		t.Fatalf("lowering the memory limit invalidated an existing reference")
	}
	// Too large for the first slab's free space, so the store needs growth,
	// which the lowered limit refuses.
	if _, err := in.GetOrIntern(strings.Repeat("z", 8192)); !errors.Is(err, ErrMemoryLimitReached) {
		t.Fatalf("GetOrIntern() error = %v, want ErrMemoryLimitReached after lowering the limit", err)
	}
}
