// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"fmt"
	"go/format"
)

// Generate renders sd as Go source in package pkgName: a package-level
// ServiceDescriptor value, a Client with one method per RPC, a Server
// interface the caller implements, and a RegisterXServer function that
// wires that implementation into an *rpcframe.Server. Request/response
// message types are assumed to live in the same generated package, the
// same single-output-package simplification package gen makes.
func Generate(sd *ServiceDescriptor, pkgName string) ([]byte, error) {
	if err := sd.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	p := func(args ...any) {
		for _, a := range args {
			fmt.Fprint(&buf, a)
		}
		fmt.Fprintln(&buf)
	}

	p("// Code generated for service ", sd.Name, ". DO NOT EDIT.")
	p()
	p("package ", pkgName)
	p()
	p(`import (`)
	p(`	"context"`)
	p()
	p(`	"github.com/mattnite/protoc-zero/rpcframe"`)
	p(`)`)
	p()

	genDescriptorVar(p, sd)
	genClient(p, sd)
	genServerInterface(p, sd)
	genRegisterFunc(p, sd)

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("gen/service: formatting %s: %w", sd.Name, err)
	}
	return out, nil
}

func genDescriptorVar(p func(...any), sd *ServiceDescriptor) {
	p("var ", sd.Name, "Descriptor = rpcframe.ServiceDescriptor{")
	p("\tName: ", fmt.Sprintf("%q", sd.FQN), ",")
	p("\tMethods: []rpcframe.MethodDescriptor{")
	for _, m := range sd.Methods {
		p("\t\t{")
		p("\t\t\tName: ", fmt.Sprintf("%q", m.Name), ",")
		p("\t\t\tSnakeIdent: ", fmt.Sprintf("%q", m.SnakeIdent), ",")
		p("\t\t\tFullPath: ", fmt.Sprintf("%q", m.FullPath), ",")
		p("\t\t\tClientStreaming: ", m.ClientStreaming, ",")
		p("\t\t\tServerStreaming: ", m.ServerStreaming, ",")
		p("\t\t},")
	}
	p("\t},")
	p("}")
	p()
}

func genClient(p func(...any), sd *ServiceDescriptor) {
	clientName := sd.Name + "Client"
	p("type ", clientName, " struct {")
	p("\tc *rpcframe.Client")
	p("}")
	p()
	p("func New", clientName, "(c *rpcframe.Client) *", clientName, " {")
	p("\treturn &", clientName, "{c: c}")
	p("}")
	p()

	for _, m := range sd.Methods {
		req, resp := lastComponent(m.InputFQN), lastComponent(m.OutputFQN)
		switch {
		case !m.ClientStreaming && !m.ServerStreaming:
			p("func (c *", clientName, ") ", m.Name, "(ctx context.Context, req *", req, ") (*", resp, ", error) {")
			p("\treturn rpcframe.CallUnary[*", req, ", ", resp, ", *", resp, "](ctx, c.c, ", fmt.Sprintf("%q", m.FullPath), ", req)")
			p("}")
		case !m.ClientStreaming && m.ServerStreaming:
			p("func (c *", clientName, ") ", m.Name, "(ctx context.Context, req *", req, ") (*rpcframe.RecvStream[", resp, ", *", resp, "], error) {")
			p("\treturn rpcframe.CallServerStream[*", req, ", ", resp, ", *", resp, "](ctx, c.c, ", fmt.Sprintf("%q", m.FullPath), ", req)")
			p("}")
		case m.ClientStreaming && !m.ServerStreaming:
			p("func (c *", clientName, ") ", m.Name, "(ctx context.Context) (*rpcframe.SendStream[*", req, "], *rpcframe.Future[*", resp, "], error) {")
			p("\treturn rpcframe.CallClientStream[*", req, ", ", resp, ", *", resp, "](ctx, c.c, ", fmt.Sprintf("%q", m.FullPath), ")")
			p("}")
		default: // bidi
			p("func (c *", clientName, ") ", m.Name, "(ctx context.Context) (*rpcframe.SendStream[*", req, "], *rpcframe.RecvStream[", resp, ", *", resp, "], error) {")
			p("\treturn rpcframe.CallBidi[*", req, ", ", resp, ", *", resp, "](ctx, c.c, ", fmt.Sprintf("%q", m.FullPath), ")")
			p("}")
		}
		p()
	}
}

func genServerInterface(p func(...any), sd *ServiceDescriptor) {
	serverName := sd.Name + "Server"
	p("// ", serverName, " is implemented by an application to handle ", sd.Name, " RPCs.")
	p("type ", serverName, " interface {")
	for _, m := range sd.Methods {
		req, resp := lastComponent(m.InputFQN), lastComponent(m.OutputFQN)
		switch {
		case !m.ClientStreaming && !m.ServerStreaming:
			p("\t", m.Name, "(ctx context.Context, req *", req, ") (*", resp, ", error)")
		case !m.ClientStreaming && m.ServerStreaming:
			p("\t", m.Name, "(ctx context.Context, req *", req, ", out *rpcframe.SendStream[*", resp, "]) error")
		case m.ClientStreaming && !m.ServerStreaming:
			p("\t", m.Name, "(ctx context.Context, in *rpcframe.RecvStream[", req, ", *", req, "]) (*", resp, ", error)")
		default:
			p("\t", m.Name, "(ctx context.Context, in *rpcframe.RecvStream[", req, ", *", req, "], out *rpcframe.SendStream[*", resp, "]) error")
		}
	}
	p("}")
	p()
}

func genRegisterFunc(p func(...any), sd *ServiceDescriptor) {
	serverName := sd.Name + "Server"
	p("func Register", serverName, "(srv *rpcframe.Server, impl ", serverName, ") {")
	for _, m := range sd.Methods {
		req, resp := lastComponent(m.InputFQN), lastComponent(m.OutputFQN)
		p("\tsrv.Register(", fmt.Sprintf("%q", m.FullPath), ", func(ctx context.Context, reqBytes []byte, tr rpcframe.Transport) error {")
		switch {
		case !m.ClientStreaming && !m.ServerStreaming:
			p("\t\tvar in ", req)
			p("\t\tif err := (&in).Decode(reqBytes); err != nil {")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\tresp, err := impl.", m.Name, "(ctx, &in)")
			p("\t\tif err != nil {")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\treturn rpcframe.RespondUnary[*", resp, "](ctx, tr, resp)")
		case !m.ClientStreaming && m.ServerStreaming:
			p("\t\tvar in ", req)
			p("\t\tif err := (&in).Decode(reqBytes); err != nil {")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\tout := rpcframe.NewSendStream[*", resp, "](tr)")
			p("\t\tif err := impl.", m.Name, "(ctx, &in, out); err != nil {")
			p("\t\t\tout.Close(ctx)")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\treturn out.Close(ctx)")
		case m.ClientStreaming && !m.ServerStreaming:
			p("\t\tin := rpcframe.RecvClientStreamRequest[", req, ", *", req, "](tr)")
			p("\t\tresp, err := impl.", m.Name, "(ctx, in)")
			p("\t\tif err != nil {")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\treturn rpcframe.RespondUnary[*", resp, "](ctx, tr, resp)")
		default:
			p("\t\tin := rpcframe.RecvClientStreamRequest[", req, ", *", req, "](tr)")
			p("\t\tout := rpcframe.NewSendStream[*", resp, "](tr)")
			p("\t\tif err := impl.", m.Name, "(ctx, in, out); err != nil {")
			p("\t\t\tout.Close(ctx)")
			p("\t\t\treturn err")
			p("\t\t}")
			p("\t\treturn out.Close(ctx)")
		}
		p("\t})")
	}
	p("}")
	p()
}
