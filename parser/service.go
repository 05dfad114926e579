// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/lexer"
)

func (p *parser) parseService() *ast.Service {
	pos := p.next().Pos // 'service'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	s := &ast.Service{Pos: pos, Name: name}
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return s
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			p.next()
			return s
		case lexer.EOF:
			p.errf(tok.Pos, "unexpected EOF in service %q", name)
			return s
		case lexer.Semi:
			p.next()
			continue
		}
		if tok.Kind != lexer.Ident {
			p.errf(tok.Pos, "unexpected token in service body")
			p.synchronize()
			continue
		}
		switch tok.Text {
		case "option":
			if opt, ok := p.parseOptionStatement(); ok {
				s.Options = append(s.Options, opt)
			}
		case "rpc":
			if m := p.parseMethod(); m != nil {
				s.Methods = append(s.Methods, m)
			}
		default:
			p.errf(tok.Pos, "unexpected keyword %q in service body", tok.Text)
			p.synchronize()
		}
	}
}

func (p *parser) parseMethod() *ast.Method {
	pos := p.next().Pos // 'rpc'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	m := &ast.Method{Pos: pos, Name: name}

	if !p.expect2(lexer.LParen) {
		p.synchronize()
		return m
	}
	if p.consumeIdent("stream") {
		m.ClientStreaming = true
	}
	m.InputType = p.parseDottedNameAllowLeadingDot()
	p.expect2(lexer.RParen)

	if !p.consumeIdent("returns") {
		p.errf(p.peek().Pos, "expected 'returns'")
		p.synchronize()
		return m
	}
	if !p.expect2(lexer.LParen) {
		p.synchronize()
		return m
	}
	if p.consumeIdent("stream") {
		m.ServerStreaming = true
	}
	m.OutputType = p.parseDottedNameAllowLeadingDot()
	p.expect2(lexer.RParen)

	if p.at(lexer.LBrace) {
		p.next()
		for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
			if p.atIdent("option") {
				if opt, ok := p.parseOptionStatement(); ok {
					m.Options = append(m.Options, opt)
				}
				continue
			}
			if p.consume(lexer.Semi) {
				continue
			}
			p.errf(p.peek().Pos, "unexpected token in rpc body")
			p.synchronize()
		}
		p.expect2(lexer.RBrace)
	} else {
		p.consume(lexer.Semi)
	}
	return m
}
