// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"testing"

	"github.com/mattnite/protoc-zero/ast"
)

func TestParseBasicMessage(t *testing.T) {
	src := `
syntax = "proto3";
package myapp.v1;

message Person {
  string name = 1;
  int32 age = 2;
  repeated string tags = 3 [packed = true];
  oneof contact {
    string email = 4;
    string phone = 5;
  }
  map<string, int32> scores = 6;
}
`
	f, diags := Parse("person.proto", []byte(src))
	for _, d := range diags.All() {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	if f.Syntax != ast.Proto3 {
		t.Fatalf("syntax = %v", f.Syntax)
	}
	if f.Package != "myapp.v1" {
		t.Fatalf("package = %q", f.Package)
	}
	if len(f.Messages) != 1 {
		t.Fatalf("messages = %d", len(f.Messages))
	}
	m := f.Messages[0]
	if len(m.Fields) != 3 {
		t.Fatalf("fields = %d, want 3 (name, age, tags)", len(m.Fields))
	}
	if len(m.Oneofs) != 1 || len(m.Oneofs[0].Fields) != 2 {
		t.Fatalf("oneofs = %+v", m.Oneofs)
	}
	if len(m.Maps) != 1 || m.Maps[0].Name != "scores" {
		t.Fatalf("maps = %+v", m.Maps)
	}
}

func TestParseReservedAndEnum(t *testing.T) {
	src := `
syntax = "proto3";
message Bad {
  reserved 1 to 5;
  reserved "old_name";
  int32 x = 3;
}
enum Color {
  UNSPECIFIED = 0;
  RED = 1;
  GREEN = 2;
  BLUE = 3;
}
`
	f, diags := Parse("t.proto", []byte(src))
	for _, d := range diags.All() {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	m := f.Messages[0]
	if len(m.ReservedRanges) != 1 || m.ReservedRanges[0].Start != 1 || m.ReservedRanges[0].End != 5 {
		t.Fatalf("reserved ranges = %+v", m.ReservedRanges)
	}
	if len(m.ReservedNames) != 1 || m.ReservedNames[0] != "old_name" {
		t.Fatalf("reserved names = %+v", m.ReservedNames)
	}
	e := f.Enums[0]
	if len(e.Values) != 4 || e.Values[0].Number != 0 {
		t.Fatalf("enum values = %+v", e.Values)
	}
}

func TestParseService(t *testing.T) {
	src := `
syntax = "proto3";
service UnaryService {
  rpc Ping(PingReq) returns (PingResp);
}
service StreamingService {
  rpc ServerSide(Query) returns (stream Result);
  rpc ClientSide(stream Chunk) returns (Ack);
  rpc Bidi(stream Chunk) returns (stream Result);
}
`
	f, diags := Parse("svc.proto", []byte(src))
	for _, d := range diags.All() {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	if len(f.Services) != 2 {
		t.Fatalf("services = %d", len(f.Services))
	}
	ss := f.Services[1]
	if ss.Methods[0].ServerStreaming != true || ss.Methods[0].ClientStreaming != false {
		t.Fatalf("ServerSide = %+v", ss.Methods[0])
	}
	if ss.Methods[1].ClientStreaming != true || ss.Methods[1].ServerStreaming != false {
		t.Fatalf("ClientSide = %+v", ss.Methods[1])
	}
	if !ss.Methods[2].ClientStreaming || !ss.Methods[2].ServerStreaming {
		t.Fatalf("Bidi = %+v", ss.Methods[2])
	}
}

func TestParserRecoversAfterError(t *testing.T) {
	src := `
message A {
  int32 x = ;
  int32 y = 2;
}
`
	f, diags := Parse("bad.proto", []byte(src))
	if !diags.HasErrors() {
		t.Fatal("expected at least one diagnostic")
	}
	if len(f.Messages) != 1 {
		t.Fatalf("messages = %d", len(f.Messages))
	}
	// The parser should have resynchronized and still picked up field y.
	found := false
	for _, fld := range f.Messages[0].Fields {
		if fld.Name == "y" {
			found = true
		}
	}
	if !found {
		t.Fatalf("field y not recovered: %+v", f.Messages[0].Fields)
	}
}

func TestParseGroupAndExtend(t *testing.T) {
	src := `
syntax = "proto2";
message M {
  optional group Result = 1 {
    optional string payload = 1;
  }
  extensions 100 to max;
}
extend M {
  optional int32 ext_field = 100;
}
`
	f, diags := Parse("g.proto", []byte(src))
	for _, d := range diags.All() {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	m := f.Messages[0]
	if len(m.Groups) != 1 || m.Groups[0].Name != "Result" {
		t.Fatalf("groups = %+v", m.Groups)
	}
	if len(m.ExtensionRanges) != 1 || m.ExtensionRanges[0].End != ast.MaxFieldNumber {
		t.Fatalf("extension ranges = %+v", m.ExtensionRanges)
	}
	if len(f.Extensions) != 1 || f.Extensions[0].Extendee != "M" {
		t.Fatalf("extensions = %+v", f.Extensions)
	}
}
