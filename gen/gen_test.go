// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/gen"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func buildFile(t *testing.T, src, path string) *descriptor.FileDescriptor {
	t.Helper()
	f, diags := parser.Parse(path, []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}
	l := linker.New(func(string) ([]byte, error) { return nil, fmt.Errorf("no imports") })
	rfs, linkDiags := l.Link([]*ast.File{f})
	if linkDiags.HasErrors() {
		t.Fatalf("unexpected link errors: %v", linkDiags.All())
	}
	return descriptor.BuildFile(rfs, rfs.ByPath(path))
}

func TestGenerateCompilesShapedOutput(t *testing.T) {
	src := `syntax = "proto3";
message Inner { int32 v = 1; }
enum Color { RED = 0; GREEN = 1; BLUE = 2; }
message Widget {
  string name = 1;
  repeated int32 tags = 2 [packed = true];
  Inner inner = 3;
  Color color = 4;
  map<string, Inner> parts = 5;
  oneof payload { int32 count = 6; string label = 7; }
}`
	fd := buildFile(t, src, "widget.proto")
	out, err := gen.Generate(fd, "widgetpb")
	if err != nil {
		t.Fatalf("Generate: %v\n--- output ---\n%s", err, out)
	}
	s := string(out)
	for _, want := range []string{
		"package widgetpb",
		"type Widget struct",
		"type Color int32",
		"func (x *Widget) CalcSize() int",
		"func (x *Widget) Encode(buf []byte) []byte",
		"func (x *Widget) Decode(buf []byte) error",
		"Widget_PayloadOneof",
		"orderedmap.OrderedMap[string, *Inner]",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated source missing %q\n--- output ---\n%s", want, s)
		}
	}
}
