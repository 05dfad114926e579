// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/lexer"
)

func (p *parser) parseFieldNumber() (int32, ast.Pos, bool) {
	// Peek before consuming so a missing number leaves the statement's `;`
	// in place for the caller's synchronize to stop at.
	if !p.at(lexer.Int) {
		tok := p.peek()
		p.errf(tok.Pos, "expected %s, got %s %q", lexer.Int, tok.Kind, tok.Text)
		return 0, tok.Pos, false
	}
	tok := p.next()
	n, err := strconv.ParseInt(tok.Text, 0, 64)
	if err != nil || n <= 0 || n > int64(ast.MaxFieldNumber) {
		p.errf(tok.Pos, "invalid field number %q", tok.Text)
		return 0, tok.Pos, false
	}
	return int32(n), tok.Pos, true
}

func (p *parser) parseMessage() *ast.Message {
	pos := p.next().Pos // 'message'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	m := &ast.Message{Pos: pos, Name: name}
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return m
	}
	p.parseMessageBody(m)
	return m
}

// expect2 is expect without returning the token; used where the caller only
// cares about success/failure.
func (p *parser) expect2(k lexer.Kind) bool {
	_, ok := p.expect(k)
	return ok
}

func (p *parser) parseMessageBody(m *ast.Message) {
	for {
		tok := p.peek()
		switch tok.Kind {
		case lexer.RBrace:
			p.next()
			return
		case lexer.EOF:
			p.errf(tok.Pos, "unexpected EOF in message %q", m.Name)
			return
		case lexer.Semi:
			p.next()
			continue
		}
		if tok.Kind != lexer.Ident {
			p.errf(tok.Pos, "unexpected token in message body")
			p.synchronize()
			continue
		}
		switch tok.Text {
		case "message":
			if nm := p.parseMessage(); nm != nil {
				m.Messages = append(m.Messages, nm)
			}
		case "enum":
			if e := p.parseEnum(); e != nil {
				m.Enums = append(m.Enums, e)
			}
		case "oneof":
			if o := p.parseOneof(); o != nil {
				m.Oneofs = append(m.Oneofs, o)
			}
		case "map":
			if mf := p.parseMapField(); mf != nil {
				m.Maps = append(m.Maps, mf)
			}
		case "reserved":
			p.parseReserved(&m.ReservedRanges, &m.ReservedNames)
		case "extensions":
			m.ExtensionRanges = append(m.ExtensionRanges, p.parseExtensionRanges()...)
		case "extend":
			m.Extensions = append(m.Extensions, p.parseExtend()...)
		case "option":
			if opt, ok := p.parseOptionStatement(); ok {
				m.Options = append(m.Options, opt)
			}
		case "group":
			if g := p.parseGroup(ast.LabelOptional); g != nil {
				m.Groups = append(m.Groups, g)
			}
		case "optional", "required", "repeated":
			label := ast.LabelOptional
			switch tok.Text {
			case "required":
				label = ast.LabelRequired
			case "repeated":
				label = ast.LabelRepeated
			}
			p.next()
			if p.atIdent("group") {
				if g := p.parseGroup(label); g != nil {
					m.Groups = append(m.Groups, g)
				}
				continue
			}
			if f := p.parseFieldAfterLabel(label); f != nil {
				m.Fields = append(m.Fields, f)
			}
		default:
			if f := p.parseFieldAfterLabel(ast.LabelImplicit); f != nil {
				m.Fields = append(m.Fields, f)
			}
		}
	}
}

// parseFieldAfterLabel parses `type ident = number [options];` once any
// label keyword has already been consumed (or, for proto3 implicit fields,
// was never present).
func (p *parser) parseFieldAfterLabel(label ast.Label) *ast.Field {
	typ := p.parseTypeRef()
	name, pos, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.expect2(lexer.Equals) {
		p.synchronize()
		return nil
	}
	num, _, ok := p.parseFieldNumber()
	if !ok {
		p.synchronize()
		return nil
	}
	opts := p.parseBracketedOptions()
	p.consume(lexer.Semi)
	return &ast.Field{Pos: pos, Name: name, Number: num, Label: label, Type: typ, Options: opts, OneofIndex: -1}
}

func (p *parser) parseMapField() *ast.MapField {
	pos := p.next().Pos // 'map'
	if !p.expect2(lexer.LAngle) {
		p.synchronize()
		return nil
	}
	keyName, keyPos, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	keyKind, isScalar := ast.ScalarKindByName(keyName)
	if !isScalar {
		p.errf(keyPos, "map key type must be a scalar, got %q", keyName)
	}
	if !p.expect2(lexer.Comma) {
		p.synchronize()
		return nil
	}
	valType := p.parseTypeRef()
	if !p.expect2(lexer.RAngle) {
		p.synchronize()
		return nil
	}
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.expect2(lexer.Equals) {
		p.synchronize()
		return nil
	}
	num, _, ok := p.parseFieldNumber()
	if !ok {
		p.synchronize()
		return nil
	}
	opts := p.parseBracketedOptions()
	p.consume(lexer.Semi)
	return &ast.MapField{Pos: pos, Name: name, Number: num, KeyType: keyKind, ValueType: valType, Options: opts}
}

func (p *parser) parseOneof() *ast.Oneof {
	pos := p.next().Pos // 'oneof'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	o := &ast.Oneof{Pos: pos, Name: name}
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return o
	}
	for {
		tok := p.peek()
		if tok.Kind == lexer.RBrace {
			p.next()
			break
		}
		if tok.Kind == lexer.EOF {
			p.errf(tok.Pos, "unexpected EOF in oneof %q", name)
			break
		}
		if tok.Kind == lexer.Semi {
			p.next()
			continue
		}
		if tok.Kind == lexer.Ident && tok.Text == "option" {
			p.parseOptionStatement()
			continue
		}
		f := p.parseFieldAfterLabel(ast.LabelImplicit)
		if f != nil {
			f.OneofIndex = len(o.Fields)
			o.Fields = append(o.Fields, f)
		}
	}
	return o
}

func (p *parser) parseGroup(label ast.Label) *ast.Group {
	pos := p.next().Pos // 'group'
	name, _, ok := p.expectIdentText()
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.expect2(lexer.Equals) {
		p.synchronize()
		return nil
	}
	num, _, ok := p.parseFieldNumber()
	if !ok {
		p.synchronize()
		return nil
	}
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return nil
	}
	msg := &ast.Message{Pos: pos, Name: name}
	p.parseMessageBody(msg)
	return &ast.Group{Pos: pos, Name: name, Number: num, Label: label, Message: msg}
}

// parseReserved parses `reserved (ranges|names);` and appends into the
// caller-supplied accumulators.
func (p *parser) parseReserved(ranges *[]ast.ReservedRange, names *[]string) {
	p.next() // 'reserved'
	if p.at(lexer.String) {
		for {
			tok, ok := p.expect(lexer.String)
			if ok {
				s, err := lexer.ResolveString(tok.Text)
				if err == nil {
					*names = append(*names, s)
				}
			}
			if !p.consume(lexer.Comma) {
				break
			}
		}
		p.consume(lexer.Semi)
		return
	}
	for {
		startPos := p.peek().Pos
		start, _, ok := p.parseFieldNumber()
		if !ok {
			p.synchronize()
			return
		}
		end := start
		if p.consumeIdent("to") {
			if p.consumeIdent("max") {
				end = ast.MaxFieldNumber
			} else {
				e, _, ok := p.parseFieldNumber()
				if !ok {
					p.synchronize()
					return
				}
				end = e
			}
		}
		*ranges = append(*ranges, ast.ReservedRange{Pos: startPos, Start: start, End: end})
		if !p.consume(lexer.Comma) {
			break
		}
	}
	p.consume(lexer.Semi)
}

func (p *parser) parseExtensionRanges() []ast.ExtensionRange {
	p.next() // 'extensions'
	var out []ast.ExtensionRange
	for {
		pos := p.peek().Pos
		start, _, ok := p.parseFieldNumber()
		if !ok {
			p.synchronize()
			return out
		}
		end := start
		if p.consumeIdent("to") {
			if p.consumeIdent("max") {
				end = ast.MaxFieldNumber
			} else {
				e, _, ok := p.parseFieldNumber()
				if !ok {
					p.synchronize()
					return out
				}
				end = e
			}
		}
		out = append(out, ast.ExtensionRange{Pos: pos, Start: start, End: end})
		if !p.consume(lexer.Comma) {
			break
		}
	}
	p.consume(lexer.Semi)
	return out
}

func (p *parser) parseExtend() []*ast.Field {
	p.next() // 'extend'
	extendee := p.parseDottedNameAllowLeadingDot()
	if !p.expect2(lexer.LBrace) {
		p.synchronize()
		return nil
	}
	var fields []*ast.Field
	for {
		tok := p.peek()
		if tok.Kind == lexer.RBrace {
			p.next()
			break
		}
		if tok.Kind == lexer.EOF {
			p.errf(tok.Pos, "unexpected EOF in extend %q", extendee)
			break
		}
		if tok.Kind == lexer.Semi {
			p.next()
			continue
		}
		label := ast.LabelOptional
		if tok.Kind == lexer.Ident {
			switch tok.Text {
			case "optional":
				p.next()
			case "required":
				label = ast.LabelRequired
				p.next()
			case "repeated":
				label = ast.LabelRepeated
				p.next()
			}
		}
		f := p.parseFieldAfterLabel(label)
		if f != nil {
			f.Extendee = extendee
			fields = append(fields, f)
		}
	}
	return fields
}

func (p *parser) parseDottedNameAllowLeadingDot() string {
	prefix := ""
	if p.at(lexer.Dot) {
		p.next()
		prefix = "."
	}
	return prefix + p.parseDottedName()
}
