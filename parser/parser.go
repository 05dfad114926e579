// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser is a recursive-descent parser for proto2 and proto3
// source, producing an *ast.File plus a diag.List of diagnostics. It always
// returns a populated AST, even when diagnostics contain errors; callers
// must check the diagnostic list before trusting the AST (spec.md 4.D).
package parser

import (
	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/diag"
	"github.com/mattnite/protoc-zero/lexer"
)

// Parse lexes and parses one file's source, returning the AST and any
// diagnostics. Parsing continues past recoverable errors by resynchronizing
// to the next top-level `;` or `}` so one pass surfaces as many problems as
// possible.
func Parse(path string, src []byte) (*ast.File, *diag.List) {
	p := &parser{
		lex:   lexer.New(path, src),
		diags: &diag.List{},
		path:  path,
	}
	return p.parseFile(), p.diags
}

type parser struct {
	lex   *lexer.Lexer
	diags *diag.List
	path  string
}

func (p *parser) errf(pos ast.Pos, format string, args ...any) {
	p.diags.Errorf(pos, format, args...)
}

func (p *parser) peek() lexer.Token {
	tok, err := p.lex.Peek()
	if err != nil {
		p.errf(err.(*lexer.Error).Pos, "%s", err.(*lexer.Error).Msg)
		return lexer.Token{Kind: lexer.EOF}
	}
	return tok
}

func (p *parser) next() lexer.Token {
	tok, err := p.lex.Next()
	if err != nil {
		p.errf(err.(*lexer.Error).Pos, "%s", err.(*lexer.Error).Msg)
		return lexer.Token{Kind: lexer.EOF}
	}
	return tok
}

// expect consumes the next token, requiring it to have the given kind. On
// mismatch it records a diagnostic and returns the mismatched token anyway
// so the caller can decide whether to proceed or resynchronize.
func (p *parser) expect(k lexer.Kind) (lexer.Token, bool) {
	tok := p.next()
	if tok.Kind != k {
		p.errf(tok.Pos, "expected %s, got %s %q", k, tok.Kind, tok.Text)
		return tok, false
	}
	return tok, true
}

func (p *parser) expectIdentText() (string, ast.Pos, bool) {
	tok, ok := p.expect(lexer.Ident)
	return tok.Text, tok.Pos, ok
}

// atIdent reports whether the next token is the identifier kw, without
// consuming anything.
func (p *parser) atIdent(kw string) bool {
	tok := p.peek()
	return tok.Kind == lexer.Ident && tok.Text == kw
}

// consumeIdent consumes the next token if it is the identifier kw.
func (p *parser) consumeIdent(kw string) bool {
	if p.atIdent(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) at(k lexer.Kind) bool { return p.peek().Kind == k }

func (p *parser) consume(k lexer.Kind) bool {
	if p.at(k) {
		p.next()
		return true
	}
	return false
}

// synchronize skips tokens until the next top-level `;`, `}` (consumed), or
// EOF. This is the recovery point spec.md 7 calls for.
func (p *parser) synchronize() {
	depth := 0
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.EOF:
			return
		case lexer.LBrace:
			depth++
			p.next()
			continue
		case lexer.RBrace:
			if depth == 0 {
				p.next()
				return
			}
			depth--
			p.next()
			continue
		case lexer.Semi:
			p.next()
			if depth == 0 {
				return
			}
			continue
		}
		p.next()
	}
}

func (p *parser) parseFile() *ast.File {
	f := &ast.File{Path: p.path}

	for {
		tok := p.peek()
		if tok.Kind == lexer.EOF {
			break
		}
		if tok.Kind != lexer.Ident {
			p.errf(tok.Pos, "unexpected token %q at top level", tok.Text)
			p.synchronize()
			continue
		}
		switch tok.Text {
		case "syntax":
			p.parseSyntax(f)
		case "import":
			p.parseImport(f)
		case "package":
			p.parsePackage(f)
		case "option":
			if opt, ok := p.parseOptionStatement(); ok {
				f.Options = append(f.Options, opt)
			}
		case "message":
			if m := p.parseMessage(); m != nil {
				f.Messages = append(f.Messages, m)
			}
		case "enum":
			if e := p.parseEnum(); e != nil {
				f.Enums = append(f.Enums, e)
			}
		case "service":
			if s := p.parseService(); s != nil {
				f.Services = append(f.Services, s)
			}
		case "extend":
			fields := p.parseExtend()
			f.Extensions = append(f.Extensions, fields...)
		default:
			p.errf(tok.Pos, "unexpected top-level keyword %q", tok.Text)
			p.synchronize()
		}
	}
	return f
}

func (p *parser) parseSyntax(f *ast.File) {
	pos := p.next().Pos // 'syntax'
	p.expect(lexer.Equals)
	tok, ok := p.expect(lexer.String)
	p.consume(lexer.Semi)
	if !ok {
		return
	}
	val, err := lexer.ResolveString(tok.Text)
	if err != nil {
		p.errf(tok.Pos, "%v", err)
		return
	}
	switch val {
	case "proto2":
		f.Syntax = ast.Proto2
	case "proto3":
		f.Syntax = ast.Proto3
	default:
		p.errf(tok.Pos, "unknown syntax %q", val)
		return
	}
	f.SyntaxPos = pos
}

func (p *parser) parseImport(f *ast.File) {
	pos := p.next().Pos // 'import'
	kind := ast.ImportNormal
	if p.consumeIdent("weak") {
		kind = ast.ImportWeak
	} else if p.consumeIdent("public") {
		kind = ast.ImportPublic
	}
	tok, ok := p.expect(lexer.String)
	p.consume(lexer.Semi)
	if !ok {
		return
	}
	val, err := lexer.ResolveString(tok.Text)
	if err != nil {
		p.errf(tok.Pos, "%v", err)
		return
	}
	f.Imports = append(f.Imports, &ast.Import{Pos: pos, Path: val, Kind: kind})
}

func (p *parser) parsePackage(f *ast.File) {
	pos := p.next().Pos // 'package'
	name := p.parseDottedName()
	p.consume(lexer.Semi)
	f.Package = name
	f.PackagePos = pos
}

// parseDottedName consumes ident ('.' ident)* and returns the joined text.
func (p *parser) parseDottedName() string {
	s, _, ok := p.expectIdentText()
	if !ok {
		return s
	}
	for p.at(lexer.Dot) {
		p.next()
		more, _, ok := p.expectIdentText()
		if !ok {
			break
		}
		s += "." + more
	}
	return s
}

// parseTypeRef parses either a scalar keyword or a (possibly leading-dot,
// possibly dotted) type reference.
func (p *parser) parseTypeRef() ast.TypeRef {
	leading := ""
	if p.at(lexer.Dot) {
		p.next()
		leading = "."
	}
	name, _, ok := p.expectIdentText()
	if !ok {
		return ast.TypeRef{Named: leading + name}
	}
	if leading == "" {
		if k, isScalar := ast.ScalarKindByName(name); isScalar {
			return ast.TypeRef{Scalar: k}
		}
	}
	full := leading + name
	for p.at(lexer.Dot) {
		p.next()
		more, _, ok := p.expectIdentText()
		if !ok {
			break
		}
		full += "." + more
	}
	return ast.TypeRef{Named: full}
}
