// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe

// MethodDescriptor is the runtime reflection record for one RPC method,
// emitted as a struct literal by gen/service alongside the Client/Server it
// generates. SnakeIdent carries the method's cross-language identifier
// form (see gen/service's snakeIdentifier) for interop with peers written
// in a language where that form, not PascalCase, is the natural method
// name.
type MethodDescriptor struct {
	Name            string
	SnakeIdent      string
	FullPath        string
	ClientStreaming bool
	ServerStreaming bool
}

// ServiceDescriptor is the runtime reflection record for one service,
// methods in declaration order.
type ServiceDescriptor struct {
	Name    string
	Methods []MethodDescriptor
}
