package intern

// snapshot.go dumps every interned string to a byte stream in ascending key
// order, and reloads it into a fresh interner later. This is deliberately
// not a framing format — no schema, no generated code, no self-describing
// type system — just a 4-byte magic, a varint record count, then
// length-prefixed records, optionally wrapped in
// github.com/klauspost/compress/zstd.
//
// Load reconstructs an interner by replaying GetOrIntern for every record in
// order. Because insertion order alone determines the keys a fresh interner
// assigns, replaying a Dump reproduces the exact same keys.
//
// © 2025 interncore authors. MIT License.

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// magic identifies an interncore snapshot stream: "ICS1" (interncore
// snapshot, version 1).
var magic = [4]byte{'I', 'C', 'S', '1'}

// Dump writes every string in in, in ascending key order, to w. When
// compress is true the record stream is wrapped in a zstd encoder.
func (in *Interner[K]) Dump(w io.Writer, compress bool) error {
	return dumpAll(w, compress, in.count, in.All())
}

// Dump writes every string currently visible in c, in ascending key order,
// to w. The snapshot covers whatever c.counter reads at the moment Dump is
// called; insertions racing with Dump may or may not be included.
func (c *ConcurrentInterner[K]) Dump(w io.Writer, compress bool) error {
	n := int(c.counter.Load())
	// A reserved index may not be published yet; dump only the leading run
	// of published slots so the record count matches the records written.
	for i := 0; i < n; i++ {
		if _, ok := c.vector.Get(i); !ok {
			n = i
			break
		}
	}
	return dumpAll(w, compress, n, viewAll(c.vector, c.fromIndex, n))
}

func dumpAll[K Key](w io.Writer, compress bool, n int, seq func(func(K, string) bool)) error {
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("intern: snapshot: write magic: %w", err)
	}

	var countBuf [binary.MaxVarintLen64]byte
	m := binary.PutUvarint(countBuf[:], uint64(n))
	if _, err := w.Write(countBuf[:m]); err != nil {
		return fmt.Errorf("intern: snapshot: write count: %w", err)
	}

	dest := w
	var zw *zstd.Encoder
	if compress {
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("intern: snapshot: zstd writer: %w", err)
		}
		zw = enc
		dest = enc
	}

	bw := bufio.NewWriter(dest)
	var lenBuf [binary.MaxVarintLen64]byte
	var writeErr error
	seq(func(_ K, s string) bool {
		l := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		if _, err := bw.Write(lenBuf[:l]); err != nil {
			writeErr = err
			return false
		}
		if _, err := bw.WriteString(s); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("intern: snapshot: write record: %w", writeErr)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("intern: snapshot: flush: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("intern: snapshot: zstd close: %w", err)
		}
	}
	return nil
}

// Load reads a stream previously produced by Dump (for any key flavor) and
// reconstructs a fresh default-flavor Interner by replaying GetOrIntern for
// every record in order. compress must match the value Dump was called
// with; the format carries no self-describing flag for it.
func Load(r io.Reader, compress bool) (*Interner[Key32], error) {
	in := New()
	if err := loadInto(r, compress, func(s string) error {
		_, err := in.GetOrIntern(s)
		return err
	}); err != nil {
		return nil, err
	}
	return in, nil
}

// Load8/Load16/Load64 are Load's counterparts for the narrower and wider
// key flavors.
func Load8(r io.Reader, compress bool) (*Interner[Key8], error) {
	in := New8()
	if err := loadInto(r, compress, func(s string) error {
		_, err := in.GetOrIntern(s)
		return err
	}); err != nil {
		return nil, err
	}
	return in, nil
}

func Load16(r io.Reader, compress bool) (*Interner[Key16], error) {
	in := New16()
	if err := loadInto(r, compress, func(s string) error {
		_, err := in.GetOrIntern(s)
		return err
	}); err != nil {
		return nil, err
	}
	return in, nil
}

func Load64(r io.Reader, compress bool) (*Interner[Key64], error) {
	in := New64()
	if err := loadInto(r, compress, func(s string) error {
		_, err := in.GetOrIntern(s)
		return err
	}); err != nil {
		return nil, err
	}
	return in, nil
}

func loadInto(r io.Reader, compress bool, intern func(string) error) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("intern: snapshot: read magic: %w", err)
	}
	if got != magic {
		return fmt.Errorf("intern: snapshot: bad magic %q", got)
	}

	br := bufio.NewReader(r)
	n, err := binary.ReadUvarint(br)
	if err != nil {
		return fmt.Errorf("intern: snapshot: read count: %w", err)
	}

	src := io.Reader(br)
	if compress {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("intern: snapshot: zstd reader: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	bsrc := bufio.NewReader(src)
	for i := uint64(0); i < n; i++ {
		l, err := binary.ReadUvarint(bsrc)
		if err != nil {
			return fmt.Errorf("intern: snapshot: read record %d length: %w", i, err)
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(bsrc, buf); err != nil {
			return fmt.Errorf("intern: snapshot: read record %d: %w", i, err)
		}
		if err := intern(string(buf)); err != nil {
			return fmt.Errorf("intern: snapshot: intern record %d: %w", i, err)
		}
	}
	return nil
}
