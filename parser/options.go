// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"strconv"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/lexer"
)

// parseOptionStatement parses a top-level or message-level `option name =
// value;` statement (the keyword `option` already identified but not yet
// consumed).
func (p *parser) parseOptionStatement() (ast.Option, bool) {
	p.next() // 'option'
	opt, ok := p.parseOptionNameAndValue()
	p.consume(lexer.Semi)
	return opt, ok
}

// parseOptionNameAndValue parses `name = value` without surrounding
// keyword/semicolon, as used both by `option ...;` and by the `[ ... ]`
// bracketed option lists on fields/enum values.
func (p *parser) parseOptionNameAndValue() (ast.Option, bool) {
	pos := p.peek().Pos
	name := p.parseOptionName()
	if !p.consume(lexer.Equals) {
		tok := p.peek()
		p.errf(tok.Pos, "expected '=' in option")
		return ast.Option{}, false
	}
	val, ok := p.parseOptionValue()
	return ast.Option{Pos: pos, Name: name, Value: val}, ok
}

// parseOptionName accepts a plain dotted name or a parenthesized extension
// name `(foo.bar)` optionally followed by more dotted segments.
func (p *parser) parseOptionName() string {
	if p.at(lexer.LParen) {
		p.next()
		name := p.parseDottedName()
		p.expect(lexer.RParen)
		for p.at(lexer.Dot) {
			p.next()
			more, _, ok := p.expectIdentText()
			if !ok {
				break
			}
			name += "." + more
		}
		return "(" + name + ")"
	}
	return p.parseDottedName()
}

// parseOptionValue parses identifier | signed-integer | float | bool |
// string | aggregate, per spec.md 4.D.
func (p *parser) parseOptionValue() (any, bool) {
	neg := false
	if p.at(lexer.Minus) {
		p.next()
		neg = true
	} else if p.at(lexer.Plus) {
		p.next()
	}

	tok := p.peek()
	switch tok.Kind {
	case lexer.Ident:
		p.next()
		switch tok.Text {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return tok.Text, true
		}
	case lexer.Int:
		p.next()
		n, err := strconv.ParseInt(tok.Text, 0, 64)
		if err != nil {
			// Fall back to unsigned for values that don't fit signed range.
			u, uerr := strconv.ParseUint(tok.Text, 0, 64)
			if uerr != nil {
				p.errf(tok.Pos, "malformed integer %q", tok.Text)
				return nil, false
			}
			if neg {
				return -int64(u), true
			}
			return u, true
		}
		if neg {
			n = -n
		}
		return n, true
	case lexer.Float:
		p.next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.errf(tok.Pos, "malformed float %q", tok.Text)
			return nil, false
		}
		if neg {
			f = -f
		}
		return f, true
	case lexer.String:
		p.next()
		s, err := lexer.ResolveString(tok.Text)
		if err != nil {
			p.errf(tok.Pos, "%v", err)
			return nil, false
		}
		// Adjacent string literal concatenation, as protoc permits.
		for p.at(lexer.String) {
			more := p.next()
			ms, err := lexer.ResolveString(more.Text)
			if err != nil {
				p.errf(more.Pos, "%v", err)
				break
			}
			s += ms
		}
		return s, true
	case lexer.LBrace:
		return p.parseAggregate()
	default:
		p.errf(tok.Pos, "expected an option value, got %s", tok.Kind)
		return nil, false
	}
}

// parseAggregate parses a `{ field: value, ... }` option literal. Its
// contents are opaque beyond the well-known keys the linker looks for
// directly on fields/enums (default, json_name, packed, allow_alias), which
// are represented as plain Options rather than ever nesting here.
func (p *parser) parseAggregate() (ast.Aggregate, bool) {
	p.expect(lexer.LBrace)
	agg := ast.Aggregate{Fields: map[string]any{}}
	for !p.at(lexer.RBrace) && !p.at(lexer.EOF) {
		name, _, ok := p.expectIdentText()
		if !ok {
			p.synchronize()
			return agg, false
		}
		p.consume(lexer.Equals) // aggregates informally accept `:` in real protoc; we accept '=' uniformly here
		val, _ := p.parseOptionValue()
		agg.Fields[name] = val
		p.consume(lexer.Comma)
	}
	p.expect(lexer.RBrace)
	return agg, true
}

// parseBracketedOptions parses an optional `[ option (',' option)* ]` list.
func (p *parser) parseBracketedOptions() []ast.Option {
	if !p.consume(lexer.LBracket) {
		return nil
	}
	var opts []ast.Option
	for {
		opt, ok := p.parseOptionNameAndValue()
		if ok {
			opts = append(opts, opt)
		}
		if !p.consume(lexer.Comma) {
			break
		}
	}
	p.expect(lexer.RBracket)
	return opts
}
