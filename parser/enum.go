// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/lexer"
)

func (p *parser) parseEnum() *ast.Enum {
	pos := p.next().Pos // 'enum'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	e := &ast.Enum{Pos: pos, Name: name}
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return e
	}
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			p.next()
			return e
		case lexer.EOF:
			p.errf(tok.Pos, "unexpected EOF in enum %q", name)
			return e
		case lexer.Semi:
			p.next()
			continue
		}
		if tok.Kind != lexer.Ident {
			p.errf(tok.Pos, "unexpected token in enum body")
			p.synchronize()
			continue
		}
		switch tok.Text {
		case "option":
			if opt, ok := p.parseOptionStatement(); ok {
				if opt.Name == "allow_alias" {
					if b, ok := opt.Value.(bool); ok {
						e.AllowAlias = b
					}
				}
				e.Options = append(e.Options, opt)
			}
		case "reserved":
			p.parseReserved(&e.ReservedRanges, &e.ReservedNames)
		default:
			if v := p.parseEnumValue(); v != nil {
				e.Values = append(e.Values, v)
			}
		}
	}
}

func (p *parser) parseEnumValue() *ast.EnumValue {
	name, pos, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.expect2(lexer.Equals) {
		p.synchronize()
		return nil
	}
	neg := p.consume(lexer.Minus)
	tok, ok := p.expect(lexer.Int)
	if !ok {
		p.synchronize()
		return nil
	}
	n, err := strconv.ParseInt(tok.Text, 0, 64)
	if err != nil {
		p.errf(tok.Pos, "invalid enum value number %q", tok.Text)
		p.synchronize()
		return nil
	}
	if neg {
		n = -n
	}
	opts := p.parseBracketedOptions()
	p.consume(lexer.Semi)
	return &ast.EnumValue{Pos: pos, Name: name, Number: int32(n), Options: opts}
}
