// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lexer tokenizes proto2/proto3 source text.
package lexer

import "github.com/mattnite/protoc-zero/ast"

// Kind is a token category.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	String

	// Punctuation. Exactly 15 distinct punctuation tokens per spec.md 4.C.
	Semi     // ;
	Comma    // ,
	Dot      // .
	Equals   // =
	LBrace   // {
	RBrace   // }
	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]
	LAngle   // <
	RAngle   // >
	Slash    // / (unused by grammar directly, reserved for future option paths)
	Minus    // -
	Plus     // +
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Semi:
		return "';'"
	case Comma:
		return "','"
	case Dot:
		return "'.'"
	case Equals:
		return "'='"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LAngle:
		return "'<'"
	case RAngle:
		return "'>'"
	case Slash:
		return "'/'"
	case Minus:
		return "'-'"
	case Plus:
		return "'+'"
	default:
		return "?"
	}
}

// Token is one lexical token. Text is the raw source slice (the lexical
// form, not an unescaped/parsed value) so the source buffer backing it can
// be reused across tokens; use ResolveString to get the unescaped value of
// a String token.
type Token struct {
	Kind Kind
	Text string
	Pos  ast.Pos
}

var punct = map[byte]Kind{
	';': Semi, ',': Comma, '.': Dot, '=': Equals,
	'{': LBrace, '}': RBrace, '(': LParen, ')': RParen,
	'[': LBracket, ']': RBracket, '<': LAngle, '>': RAngle,
	'/': Slash, '-': Minus, '+': Plus,
}
