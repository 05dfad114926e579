// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"math"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 2, 127, 128, 150, 1<<14 - 1, 1 << 14, math.MaxUint32, math.MaxUint64}
	for _, v := range vals {
		buf := AppendVarint(nil, v)
		if len(buf) != SizeVarint(v) {
			t.Fatalf("SizeVarint(%d) = %d, want %d", v, SizeVarint(v), len(buf))
		}
		got, n, err := ConsumeVarint(buf)
		if err != nil {
			t.Fatalf("ConsumeVarint(%v): %v", buf, err)
		}
		if got != v || n != len(buf) {
			t.Fatalf("round-trip(%d) = (%d, %d), want (%d, %d)", v, got, n, v, len(buf))
		}
	}
}

func TestVarint150(t *testing.T) {
	// S1 from spec.md: field 1, implicit int32 = 150 under proto3.
	buf := AppendVarintField(nil, 1, 150)
	want := []byte{0x08, 0x96, 0x01}
	if string(buf) != string(want) {
		t.Fatalf("AppendVarintField(1, 150) = % x, want % x", buf, want)
	}
}

func TestZigZagRoundTrip32(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 2, -2, math.MaxInt32, math.MinInt32} {
		if got := DecodeZigZag32(EncodeZigZag32(v)); got != v {
			t.Fatalf("zigzag32 round-trip(%d) = %d", v, got)
		}
	}
}

func TestZigZagRoundTrip64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2, -2, math.MaxInt64, math.MinInt64} {
		if got := DecodeZigZag64(EncodeZigZag64(v)); got != v {
			t.Fatalf("zigzag64 round-trip(%d) = %d", v, got)
		}
	}
}

func TestOverflow(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0xff
	}
	buf[9] = 0x02 // 10th byte value > 1
	if _, _, err := ConsumeVarint(buf); err != ErrOverflow {
		t.Fatalf("ConsumeVarint(overflow) = %v, want ErrOverflow", err)
	}
}

func TestFieldIteratorRoundTrip(t *testing.T) {
	buf := AppendVarintField(nil, 1, 150)
	buf = AppendLenField(buf, 2, []byte("hello"))
	buf = AppendFixed32Field(buf, 3, 0xdeadbeef)

	it := NewFieldIterator(buf)
	f, ok := it.Next()
	if !ok || f.Number != 1 || f.Value.Varint() != 150 {
		t.Fatalf("field 1 = %+v, %v", f, ok)
	}
	f, ok = it.Next()
	if !ok || f.Number != 2 || string(f.Value.Bytes()) != "hello" {
		t.Fatalf("field 2 = %+v, %v", f, ok)
	}
	f, ok = it.Next()
	if !ok || f.Number != 3 || f.Value.Fixed32() != 0xdeadbeef {
		t.Fatalf("field 3 = %+v, %v", f, ok)
	}
	if _, ok := it.Next(); ok || it.Err() != nil {
		t.Fatalf("expected clean end, err=%v", it.Err())
	}
}

func TestSizeMatchesEncode(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 1 << 20, math.MaxUint64} {
		if got, want := len(AppendVarintField(nil, 5, v)), SizeVarintField(5, v); got != want {
			t.Fatalf("varint field size mismatch: %d != %d", got, want)
		}
	}
	if got, want := len(AppendFixed32Field(nil, 5, 1)), SizeFixed32Field(5); got != want {
		t.Fatalf("fixed32 field size mismatch: %d != %d", got, want)
	}
	if got, want := len(AppendFixed64Field(nil, 5, 1)), SizeFixed64Field(5); got != want {
		t.Fatalf("fixed64 field size mismatch: %d != %d", got, want)
	}
	if got, want := len(AppendLenField(nil, 5, []byte("abc"))), SizeLenField(5, 3); got != want {
		t.Fatalf("len field size mismatch: %d != %d", got, want)
	}
}

func TestSkipGroup(t *testing.T) {
	// SGROUP(1), nested SGROUP(2)/EGROUP(2), trailing varint field 3, EGROUP(1).
	var buf []byte
	buf = AppendTag(buf, 1, StartGroupType)
	buf = AppendTag(buf, 2, StartGroupType)
	buf = AppendTag(buf, 2, EndGroupType)
	buf = AppendVarintField(buf, 3, 42)
	buf = AppendTag(buf, 1, EndGroupType)

	// SkipField starts just past the SGROUP(1) tag, as a decoder calls it.
	end, err := SkipField(buf, SizeTag(1), 1, StartGroupType)
	if err != nil {
		t.Fatalf("SkipField: %v", err)
	}
	if end != len(buf) {
		t.Fatalf("SkipField consumed %d of %d bytes", end, len(buf))
	}
}

func TestPackedVarintIterator(t *testing.T) {
	var body []byte
	body = AppendVarint(body, 1)
	body = AppendVarint(body, 2)
	body = AppendVarint(body, 3)

	it := NewPackedVarintIterator(body)
	var got []uint64
	for {
		v, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, v)
	}
	if it.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", it.Remaining())
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}
