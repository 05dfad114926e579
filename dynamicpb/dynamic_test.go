// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynamicpb_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
	"github.com/mattnite/protoc-zero/gen"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func buildAndRegister(t *testing.T, src, path string) (*descriptor.FileDescriptor, *descriptor.Files) {
	t.Helper()
	f, diags := parser.Parse(path, []byte(src))
	if diags.HasErrors() {
		t.Fatalf("parse errors: %v", diags.All())
	}
	l := linker.New(func(string) ([]byte, error) { return nil, fmt.Errorf("no imports") })
	rfs, linkDiags := l.Link([]*ast.File{f})
	if linkDiags.HasErrors() {
		t.Fatalf("link errors: %v", linkDiags.All())
	}
	fd := descriptor.BuildFile(rfs, rfs.ByPath(path))
	files := descriptor.NewFiles()
	if err := files.RegisterFile(fd); err != nil {
		t.Fatalf("RegisterFile: %v", err)
	}
	return fd, files
}

func TestSetGetScalarAndMessage(t *testing.T) {
	src := `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  int32 count = 2;
  Inner inner = 3;
  repeated int32 nums = 4 [packed = true];
}`
	_, files := buildAndRegister(t, src, "outer.proto")

	msg := dynamicpb.New(mustFind(t, files, ".Outer"), files)
	if err := msg.Set(1, "hello"); err != nil {
		t.Fatalf("Set name: %v", err)
	}
	if err := msg.Set(2, int32(42)); err != nil {
		t.Fatalf("Set count: %v", err)
	}
	inner := dynamicpb.New(mustFind(t, files, ".Inner"), files)
	if err := inner.Set(1, "tagged"); err != nil {
		t.Fatalf("Set inner.tag: %v", err)
	}
	if err := msg.SetMessage(3, inner); err != nil {
		t.Fatalf("SetMessage: %v", err)
	}
	for _, n := range []int32{1, 2, 3} {
		if err := msg.AppendRepeated(4, n); err != nil {
			t.Fatalf("AppendRepeated: %v", err)
		}
	}

	if v, ok := msg.Get(1); !ok || v != "hello" {
		t.Errorf("Get(1) = %v, %v", v, ok)
	}
	if v, ok := msg.Get(2); !ok || v != int32(42) {
		t.Errorf("Get(2) = %v, %v", v, ok)
	}
	sub, ok := msg.GetMessage(3)
	if !ok {
		t.Fatalf("GetMessage(3) missing")
	}
	if v, _ := sub.Get(1); v != "tagged" {
		t.Errorf("inner.tag = %v", v)
	}
	if got := msg.GetRepeated(4); !cmp.Equal(got, []any{int32(1), int32(2), int32(3)}) {
		t.Errorf("GetRepeated(4) = %v", got)
	}

	// Setting a mismatched type must fail rather than silently store it.
	if err := msg.Set(2, "not an int32"); err == nil {
		t.Errorf("Set(2, string) should have failed type check")
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  int32 count = 2;
  Inner inner = 3;
  repeated int32 nums = 4 [packed = true];
  map<string, int32> scores = 5;
}`
	fd, files := buildAndRegister(t, src, "outer.proto")

	out, err := gen.Generate(fd, "outerpb")
	if err != nil {
		t.Fatalf("gen.Generate: %v\n%s", err, out)
	}

	outerDesc := mustFind(t, files, ".Outer")
	innerDesc := mustFind(t, files, ".Inner")

	original := dynamicpb.New(outerDesc, files)
	original.Set(1, "hello")
	original.Set(2, int32(7))
	inner := dynamicpb.New(innerDesc, files)
	inner.Set(1, "x")
	original.SetMessage(3, inner)
	original.AppendRepeated(4, int32(1))
	original.AppendRepeated(4, int32(2))
	original.PutMap(5, "a", int32(1))
	original.PutMap(5, "b", int32(2))

	wireBytes := original.Encode(nil)

	decoded, err := dynamicpb.Decode(outerDesc, files, wireBytes)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	reencoded := decoded.Encode(nil)
	if !cmp.Equal(wireBytes, reencoded) {
		t.Errorf("round trip mismatch:\noriginal:  %x\nreencoded: %x", wireBytes, reencoded)
	}

	if v, _ := decoded.Get(1); v != "hello" {
		t.Errorf("decoded name = %v", v)
	}
	if v, _ := decoded.Get(2); v != int32(7) {
		t.Errorf("decoded count = %v", v)
	}
	sub, ok := decoded.GetMessage(3)
	if !ok {
		t.Fatalf("decoded inner missing")
	}
	if v, _ := sub.Get(1); v != "x" {
		t.Errorf("decoded inner.tag = %v", v)
	}
	m := decoded.GetMap(5)
	if m == nil || m.Len() != 2 {
		t.Fatalf("decoded map = %v", m)
	}
	if v, ok := m.Get("a"); !ok || v != int32(1) {
		t.Errorf("decoded map[a] = %v, %v", v, ok)
	}
}

func TestUnknownFieldPreservedThroughRoundTrip(t *testing.T) {
	src := `syntax = "proto3";
message Small { string name = 1; }`
	fd, files := buildAndRegister(t, src, "small.proto")
	smallDesc := mustFind(t, files, ".Small")

	// Hand-build bytes for a field number Small doesn't declare.
	unknown := []byte{}
	unknown = append(unknown, 0x10, 0x05) // field 2, varint, value 5 (tag=2<<3|0=0x10)
	var buf []byte
	buf = append(buf, 0x0a, 0x03, 'a', 'b', 'c') // field 1 (string) "abc"
	buf = append(buf, unknown...)

	msg, err := dynamicpb.Decode(smallDesc, files, buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := msg.Get(1); v != "abc" {
		t.Errorf("name = %v", v)
	}
	if len(msg.Unknown()) == 0 {
		t.Fatalf("expected unknown field 2 to survive decode")
	}

	re := msg.Encode(nil)
	msg2, err := dynamicpb.Decode(smallDesc, files, re)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if !cmp.Equal(re, buf) {
		t.Errorf("re-encoded bytes differ:\nwant %x\ngot  %x", buf, re)
	}
	if v, _ := msg2.Get(1); v != "abc" {
		t.Errorf("round-tripped name = %v", v)
	}
}

func mustFind(t *testing.T, files *descriptor.Files, name string) *descriptor.MessageDescriptor {
	t.Helper()
	md, ok := files.MessageByName(name)
	if !ok {
		t.Fatalf("message %q not registered", name)
	}
	return md
}
