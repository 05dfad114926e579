// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prototext_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
	"github.com/mattnite/protoc-zero/encoding/prototext"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func build(t *testing.T, src, path string) *descriptor.Files {
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
	return files
}

func TestMarshalNestedMessage(t *testing.T) {
	files := build(t, `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  Inner inner = 2;
  repeated int32 nums = 3;
}`, "outer.proto")
	outerDesc, _ := files.MessageByName(".Outer")
	innerDesc, _ := files.MessageByName(".Inner")

	m := dynamicpb.New(outerDesc, files)
	m.Set(1, "hi")
	inner := dynamicpb.New(innerDesc, files)
	inner.Set(1, "x")
	m.SetMessage(2, inner)
	m.AppendRepeated(3, int32(1))
	m.AppendRepeated(3, int32(2))

	out, err := prototext.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(out)
	for _, want := range []string{`name: "hi"`, "inner {", `tag: "x"`, "nums: 1", "nums: 2"} {
		if !strings.Contains(got, want) {
			t.Errorf("Marshal output missing %q, got:\n%s", want, got)
		}
	}
}

func TestUnmarshalWithCommentsAndUnknownField(t *testing.T) {
	files := build(t, `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  Inner inner = 2;
  repeated int32 nums = 3;
}`, "outer.proto")
	outerDesc, _ := files.MessageByName(".Outer")

	src := `
# a leading comment
name: "hi"  // trailing comment
bogus_field: 123
inner {
  tag: "x"
}
nums: 1
nums: 2
`
	m, err := prototext.Unmarshal(outerDesc, files, []byte(src))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, _ := m.Get(1); v != "hi" {
		t.Errorf("name = %v", v)
	}
	sub, ok := m.GetMessage(2)
	if !ok {
		t.Fatalf("inner missing")
	}
	if v, _ := sub.Get(1); v != "x" {
		t.Errorf("inner.tag = %v", v)
	}
	if got := m.GetRepeated(3); len(got) != 2 {
		t.Errorf("nums = %v", got)
	}
}

func TestUnmarshalSpecialFloats(t *testing.T) {
	files := build(t, `syntax = "proto3";
message M { double d = 1; float f = 2; }`, "m.proto")
	desc, _ := files.MessageByName(".M")

	m, err := prototext.Unmarshal(desc, files, []byte("d: inf\nf: -inf\n"))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	d, _ := m.Get(1)
	if d.(float64) <= 0 {
		t.Errorf("d = %v, want +Inf", d)
	}
}

func TestMapRoundTrip(t *testing.T) {
	files := build(t, `syntax = "proto3";
message M { map<string, int32> counts = 1; }`, "m.proto")
	desc, _ := files.MessageByName(".M")

	m := dynamicpb.New(desc, files)
	m.PutMap(1, "a", int32(1))

	out, err := prototext.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	m2, err := prototext.Unmarshal(desc, files, out)
	if err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, out)
	}
	om := m2.GetMap(1)
	if om == nil || om.Len() != 1 {
		t.Fatalf("counts = %v", om)
	}
	if v, ok := om.Get("a"); !ok || v != int32(1) {
		t.Errorf("counts[a] = %v, %v", v, ok)
	}
}
