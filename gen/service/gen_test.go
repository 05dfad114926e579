// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package service_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/gen/service"
	"github.com/mattnite/protoc-zero/linker"
	"github.com/mattnite/protoc-zero/parser"
)

func link(t *testing.T, src, path string) (*linker.ResolvedFileSet, *ast.File) {
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
	return rfs, f
}

func TestBuildServiceMethodShapeAndFullPath(t *testing.T) {
	src := `syntax = "proto3";
package myapp.services.v1;
message LookupRequest { string key = 1; }
message LookupResponse { string value = 1; }
service PackagedService {
  rpc Lookup(LookupRequest) returns (LookupResponse);
  rpc GetHTTPResponse(LookupRequest) returns (LookupResponse);
}`
	rfs, f := link(t, src, "svc.proto")
	sd := service.BuildService(rfs, f.Package, f.Services[0])

	if sd.Name != "PackagedService" {
		t.Errorf("Name = %q", sd.Name)
	}
	if sd.FQN != "myapp.services.v1.PackagedService" {
		t.Errorf("FQN = %q", sd.FQN)
	}
	if got, want := sd.Methods[0].FullPath, "/myapp.services.v1.PackagedService/Lookup"; got != want {
		t.Errorf("methods[0].FullPath = %q, want %q", got, want)
	}
	if got, want := sd.Methods[1].SnakeIdent, "get_h_t_t_p_response"; got != want {
		t.Errorf("SnakeIdent = %q, want %q", got, want)
	}
	for _, m := range sd.Methods {
		if m.ClientStreaming || m.ServerStreaming {
			t.Errorf("method %s: expected unary, got client=%v server=%v", m.Name, m.ClientStreaming, m.ServerStreaming)
		}
	}
	if err := sd.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGenerateServerStreamingShape(t *testing.T) {
	src := `syntax = "proto3";
message Query { string q = 1; }
message Result { string r = 1; int32 idx = 2; }
service StreamingService {
  rpc ServerSide(Query) returns (stream Result);
}`
	rfs, f := link(t, src, "stream.proto")
	sd := service.BuildService(rfs, f.Package, f.Services[0])

	out, err := service.Generate(sd, "streampb")
	if err != nil {
		t.Fatalf("Generate: %v\n--- output ---\n%s", err, out)
	}
	s := string(out)
	for _, want := range []string{
		"package streampb",
		"type StreamingServiceClient struct",
		"func (c *StreamingServiceClient) ServerSide(ctx context.Context, req *Query) (*rpcframe.RecvStream[Result, *Result], error)",
		"type StreamingServiceServer interface",
		"ServerSide(ctx context.Context, req *Query, out *rpcframe.SendStream[*Result]) error",
		"func RegisterStreamingServiceServer(srv *rpcframe.Server, impl StreamingServiceServer) {",
		`"/StreamingService/ServerSide"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated source missing %q\n--- output ---\n%s", want, s)
		}
	}
}
