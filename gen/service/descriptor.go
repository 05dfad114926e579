// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package service builds a ServiceDescriptor from a linked AST service and
// generates its Client/Server Go bindings over package rpcframe.
package service

import (
	"fmt"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/linker"
)

// MethodDescriptor describes one RPC method in source order.
type MethodDescriptor struct {
	// Name is the method's PascalCase name as written in the .proto file,
	// and the name the generated Client/Server expose as a Go method.
	Name string
	// SnakeIdent is the method's cross-language identifier form (see
	// snakeIdentifier): letter-by-letter lowercasing with an underscore
	// before every capital but the first. Carried as descriptor metadata
	// for interop with non-Go peers; Go call sites use Name.
	SnakeIdent      string
	FullPath        string
	ClientStreaming bool
	ServerStreaming bool
	InputFQN        string
	OutputFQN       string
}

// ServiceDescriptor describes one `service` block.
type ServiceDescriptor struct {
	// Name is the service's own (unqualified) name.
	Name string
	// FQN is the package-qualified name, e.g. "myapp.services.v1.Lookup".
	FQN     string
	Methods []MethodDescriptor
}

// BuildService builds a ServiceDescriptor for s, whose methods must already
// have been resolved in rfs (i.e. s came from a file linker.Link
// succeeded on). pkg is the proto package the service was declared in,
// possibly empty.
func BuildService(rfs *linker.ResolvedFileSet, pkg string, s *ast.Service) *ServiceDescriptor {
	fqn := s.Name
	if pkg != "" {
		fqn = pkg + "." + s.Name
	}
	sd := &ServiceDescriptor{Name: s.Name, FQN: fqn}
	for _, m := range s.Methods {
		md := MethodDescriptor{
			Name:            m.Name,
			SnakeIdent:      snakeIdentifier(m.Name),
			FullPath:        "/" + fqn + "/" + m.Name,
			ClientStreaming: m.ClientStreaming,
			ServerStreaming: m.ServerStreaming,
		}
		if ti, ok := rfs.MethodInput[m]; ok {
			md.InputFQN = ti.FQN
		}
		if ti, ok := rfs.MethodOutput[m]; ok {
			md.OutputFQN = ti.FQN
		}
		sd.Methods = append(sd.Methods, md)
	}
	return sd
}

// Validate reports the first method whose input or output type failed to
// resolve (BuildService leaves the corresponding FQN empty in that case),
// so Generate can fail early with a clear message instead of emitting code
// that references an empty Go type name.
func (sd *ServiceDescriptor) Validate() error {
	for _, m := range sd.Methods {
		if m.InputFQN == "" {
			return fmt.Errorf("gen/service: method %s.%s: unresolved input type", sd.Name, m.Name)
		}
		if m.OutputFQN == "" {
			return fmt.Errorf("gen/service: method %s.%s: unresolved output type", sd.Name, m.Name)
		}
	}
	return nil
}
