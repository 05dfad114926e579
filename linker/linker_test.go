// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linker

import (
	"fmt"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/parser"
)

func TestImportCycleOneDiagnostic(t *testing.T) {
	sources := map[string]string{
		"a.proto": `syntax = "proto3"; import "b.proto"; message A { B b = 1; }`,
		"b.proto": `syntax = "proto3"; import "a.proto"; message B { A a = 1; }`,
	}
	loader := func(path string) ([]byte, error) {
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("no such file %q", path)
		}
		return []byte(src), nil
	}

	aAST, diags := parser.Parse("a.proto", []byte(sources["a.proto"]))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}

	l := New(loader)
	_, linkDiags := l.Link([]*ast.File{aAST})

	cycleCount := 0
	for _, d := range linkDiags.All() {
		if containsCircular(d.Message) {
			cycleCount++
		}
	}
	if cycleCount != 1 {
		t.Fatalf("expected exactly one circular import diagnostic, got %d: %v", cycleCount, linkDiags.All())
	}
}

func containsCircular(msg string) bool {
	for i := 0; i+len("circular") <= len(msg); i++ {
		if msg[i:i+len("circular")] == "circular" {
			return true
		}
	}
	return false
}

func TestReservedConflictS9(t *testing.T) {
	src := `syntax = "proto3"; message Bad { reserved 1 to 5; int32 x = 3; }`
	f, diags := parser.Parse("bad.proto", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}
	l := New(func(string) ([]byte, error) { return nil, fmt.Errorf("no imports") })
	_, linkDiags := l.Link([]*ast.File{f})
	if !linkDiags.HasErrors() {
		t.Fatal("expected a diagnostic for field x in the reserved range")
	}
}

func TestNameResolutionAcrossFiles(t *testing.T) {
	sources := map[string]string{
		"common.proto": `syntax = "proto3"; package common; message Money { int64 cents = 1; }`,
		"order.proto":  `syntax = "proto3"; package shop; import "common.proto"; message Order { common.Money total = 1; }`,
	}
	loader := func(path string) ([]byte, error) {
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("no such file %q", path)
		}
		return []byte(src), nil
	}
	orderAST, diags := parser.Parse("order.proto", []byte(sources["order.proto"]))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}
	l := New(loader)
	rfs, linkDiags := l.Link([]*ast.File{orderAST})
	if linkDiags.HasErrors() {
		t.Fatalf("unexpected link errors: %v", linkDiags.All())
	}
	orderMsg := rfs.ByPath("order.proto").AST.Messages[0]
	ti, ok := rfs.ResolveFieldType(orderMsg.Fields[0])
	if !ok {
		t.Fatal("field total did not resolve")
	}
	if ti.FQN != ".common.Money" {
		t.Fatalf("resolved FQN = %q, want .common.Money", ti.FQN)
	}
}

func TestUnresolvedReferenceIsOneDiagnostic(t *testing.T) {
	src := `syntax = "proto3"; message M { Missing m = 1; }`
	f, diags := parser.Parse("m.proto", []byte(src))
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.All())
	}
	l := New(func(string) ([]byte, error) { return nil, fmt.Errorf("no imports") })
	_, linkDiags := l.Link([]*ast.File{f})
	if count := len(linkDiags.All()); count != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", count, linkDiags.All())
	}
}
