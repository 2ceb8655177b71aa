package blockvec

import (
	"bytes"
	"sync"
	"testing"
)

func TestVector_SetAndGet(t *testing.T) {
	v := New()
	if _, ok := v.Get(0); ok {
		t.Fatalf("empty vector should have nothing published at 0")
	}
	v.SetAt(0, []byte("a"))
	v.SetAt(1, []byte("b"))
	ref, ok := v.Get(0)
	if !ok || string(ref) != "a" {
		t.Fatalf("Get(0) = %q, %v", ref, ok)
	}
	ref, ok = v.Get(1)
	if !ok || string(ref) != "b" {
		t.Fatalf("Get(1) = %q, %v", ref, ok)
	}
	if _, ok := v.Get(2); ok {
		t.Fatalf("index 2 should not be published")
	}
}

func TestVector_CrossesBlockBoundary(t *testing.T) {
	v := New()
	for i := 0; i < blockSize*3+7; i++ {
		v.SetAt(i, []byte{byte(i)})
	}
	for i := 0; i < blockSize*3+7; i++ {
		ref, ok := v.Get(i)
		if !ok || len(ref) != 1 || ref[0] != byte(i) {
			t.Fatalf("index %d corrupted: %v %v", i, ref, ok)
		}
	}
}

func TestVector_ConcurrentDistinctIndices(t *testing.T) {
	v := New()
	const n = 20000
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < n; i += 8 {
				v.SetAt(i, []byte{byte(i), byte(i >> 8)})
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		ref, ok := v.Get(i)
		if !ok {
			t.Fatalf("index %d never published", i)
		}
		want := []byte{byte(i), byte(i >> 8)}
		if !bytes.Equal(ref, want) {
			t.Fatalf("index %d = %v, want %v", i, ref, want)
		}
	}
}

func TestVector_Iterate(t *testing.T) {
	v := New()
	want := [][]byte{[]byte("x"), []byte("y"), []byte("z")}
	for i, b := range want {
		v.SetAt(i, b)
	}
	var got [][]byte
	v.Iterate(len(want), func(idx int, ref []byte) {
		got = append(got, ref)
	})
	if len(got) != len(want) {
		t.Fatalf("iterate count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("index %d = %q, want %q", i, got[i], want[i])
		}
	}
}
