// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protojson_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
	"github.com/mattnite/protoc-zero/encoding/protojson"
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

func TestMarshalScalarsAndMessage(t *testing.T) {
	files := build(t, `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  int64 big = 2;
  double ratio = 3;
  Inner inner = 4;
  repeated int32 nums = 5;
}`, "outer.proto")

	outerDesc, _ := files.MessageByName(".Outer")
	innerDesc, _ := files.MessageByName(".Inner")

	m := dynamicpb.New(outerDesc, files)
	m.Set(1, "hello")
	m.Set(2, int64(9223372036854775807))
	m.Set(3, 1.5)
	inner := dynamicpb.New(innerDesc, files)
	inner.Set(1, "x")
	m.SetMessage(4, inner)
	m.AppendRepeated(5, int32(1))
	m.AppendRepeated(5, int32(2))

	out, err := protojson.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(out)

	for _, want := range []string{
		`"name":"hello"`,
		`"big":"9223372036854775807"`,
		`"ratio":1.5`,
		`"inner":{"tag":"x"}`,
		`"nums":[1,2]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Marshal output missing %q, got %s", want, got)
		}
	}
}

func TestMarshalSpecialFloats(t *testing.T) {
	files := build(t, `syntax = "proto3";
message M { double d = 1; }`, "m.proto")
	desc, _ := files.MessageByName(".M")
	m := dynamicpb.New(desc, files)
	m.Set(1, math.Inf(1))

	out, err := protojson.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `"d":"Infinity"`) {
		t.Errorf("expected Infinity literal, got %s", out)
	}
}

func TestUnmarshalRoundTrip(t *testing.T) {
	files := build(t, `syntax = "proto3";
message Inner { string tag = 1; }
message Outer {
  string name = 1;
  int64 big = 2;
  Inner inner = 3;
  repeated int32 nums = 4;
  map<string, int32> counts = 5;
}`, "outer.proto")
	outerDesc, _ := files.MessageByName(".Outer")

	input := `{"name":"hi","big":"42","inner":{"tag":"t"},"nums":[3,4,5],"counts":{"a":1,"b":2}}`
	m, err := protojson.Unmarshal(outerDesc, files, []byte(input))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, _ := m.Get(1); v != "hi" {
		t.Errorf("name = %v", v)
	}
	if v, _ := m.Get(2); v != int64(42) {
		t.Errorf("big = %v", v)
	}
	sub, ok := m.GetMessage(3)
	if !ok {
		t.Fatalf("inner missing")
	}
	if v, _ := sub.Get(1); v != "t" {
		t.Errorf("inner.tag = %v", v)
	}
	if got := m.GetRepeated(4); len(got) != 3 {
		t.Errorf("nums = %v", got)
	}
	om := m.GetMap(5)
	if om == nil || om.Len() != 2 {
		t.Fatalf("counts = %v", om)
	}

	out, err := protojson.Marshal(m)
	if err != nil {
		t.Fatalf("re-Marshal: %v", err)
	}
	m2, err := protojson.Unmarshal(outerDesc, files, out)
	if err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	if v, _ := m2.Get(1); v != "hi" {
		t.Errorf("round-tripped name = %v", v)
	}
}
