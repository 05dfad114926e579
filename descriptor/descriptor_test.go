// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptor_test

import (
	"fmt"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func mustLink(t *testing.T, sources map[string]string, root string) *linker.ResolvedFileSet {
	t.Helper()
	loader := func(path string) ([]byte, error) {
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("no such file %q", path)
		}
		return []byte(src), nil
	}
	f, diags := parser.Parse(root, []byte(sources[root]))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}
	l := linker.New(loader)
	rfs, linkDiags := l.Link([]*ast.File{f})
	if linkDiags.HasErrors() {
		t.Fatalf("unexpected link errors: %v", linkDiags.All())
	}
	return rfs
}

func TestBuildFileFieldsAndMap(t *testing.T) {
	sources := map[string]string{
		"m.proto": `syntax = "proto3";
message Entry { string key = 1; int32 value = 2; }
message M {
  string name = 1;
  repeated int32 tags = 2 [packed = true];
  map<string, Entry> by_key = 3;
  oneof kind { int32 a = 4; string b = 5; }
}`,
	}
	rfs := mustLink(t, sources, "m.proto")
	fd := descriptor.BuildFile(rfs, rfs.ByPath("m.proto"))

	var m *descriptor.MessageDescriptor
	for _, cand := range fd.Messages {
		if cand.Name == "M" {
			m = cand
		}
	}
	if m == nil {
		t.Fatal("message M not found")
	}

	name := m.FieldByNumber(1)
	if name == nil || name.Type != descriptor.TypeString {
		t.Fatalf("field 1 = %+v, want string", name)
	}

	tags := m.FieldByNumber(2)
	if tags == nil || !tags.IsRepeated() || !tags.Packed {
		t.Fatalf("field 2 = %+v, want repeated packed", tags)
	}

	byKey := m.MapByNumber(3)
	if byKey == nil || byKey.ValueType != descriptor.TypeMessage || byKey.ValueTypeName != ".Entry" {
		t.Fatalf("map field 3 = %+v, want message .Entry", byKey)
	}

	if len(m.Oneofs) != 1 || len(m.Oneofs[0].FieldIndices) != 2 {
		t.Fatalf("oneof kind = %+v, want 2 member fields", m.Oneofs)
	}
	a := m.FieldByNumber(4)
	if a == nil || a.OneofIndex != 0 {
		t.Fatalf("field 4 oneof index = %+v, want 0", a)
	}
}

func TestBuildFileJSONNameDefault(t *testing.T) {
	sources := map[string]string{
		"j.proto": `syntax = "proto3"; message J { string user_id = 1; }`,
	}
	rfs := mustLink(t, sources, "j.proto")
	fd := descriptor.BuildFile(rfs, rfs.ByPath("j.proto"))
	f := fd.Messages[0].FieldByNumber(1)
	if f.JSONName != "userId" {
		t.Fatalf("JSONName = %q, want userId", f.JSONName)
	}
}

func TestBuildFileEnumProto3OpenAndAlias(t *testing.T) {
	sources := map[string]string{
		"e.proto": `syntax = "proto3";
enum Status {
  option allow_alias = true;
  UNKNOWN = 0;
  OK = 1;
  FINE = 1;
}`,
	}
	rfs := mustLink(t, sources, "e.proto")
	fd := descriptor.BuildFile(rfs, rfs.ByPath("e.proto"))
	if len(fd.Enums) != 1 {
		t.Fatalf("enums = %d, want 1", len(fd.Enums))
	}
	e := fd.Enums[0]
	if !e.Open {
		t.Fatal("proto3 enum should be Open")
	}
	v, ok := e.ValueByNumber(1)
	if !ok || (v.Name != "OK" && v.Name != "FINE") {
		t.Fatalf("ValueByNumber(1) = %+v, %v", v, ok)
	}
}

func TestRegistryRejectsDuplicateFile(t *testing.T) {
	sources := map[string]string{
		"r.proto": `syntax = "proto3"; message R { int32 x = 1; }`,
	}
	rfs := mustLink(t, sources, "r.proto")
	fd := descriptor.BuildFile(rfs, rfs.ByPath("r.proto"))

	reg := descriptor.NewFiles()
	if err := reg.RegisterFile(fd); err != nil {
		t.Fatalf("first RegisterFile: %v", err)
	}
	if err := reg.RegisterFile(fd); err == nil {
		t.Fatal("expected an error registering the same file twice")
	}

	msg, ok := reg.MessageByName(".R")
	if !ok || msg.Name != "R" {
		t.Fatalf("MessageByName(.R) = %+v, %v", msg, ok)
	}
}

func TestBuildFileNestedMessageFlattenedForRegistry(t *testing.T) {
	sources := map[string]string{
		"n.proto": `syntax = "proto3";
message Outer {
  message Inner { int32 v = 1; }
  Inner inner = 1;
}`,
	}
	rfs := mustLink(t, sources, "n.proto")
	fd := descriptor.BuildFile(rfs, rfs.ByPath("n.proto"))

	reg := descriptor.NewFiles()
	if err := reg.RegisterFile(fd); err != nil {
		t.Fatalf("RegisterFile: %v", err)
	}
	if _, ok := reg.MessageByName(".Outer.Inner"); !ok {
		t.Fatal("nested message .Outer.Inner was not registered")
	}
}
