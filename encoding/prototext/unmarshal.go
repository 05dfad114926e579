// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prototext

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
)

// Unmarshal parses protobuf text format into a new message built against
// desc. Unrecognized field names are skipped rather than rejected, matching
// the format's tolerant-parse convention.
func Unmarshal(desc *descriptor.MessageDescriptor, files *descriptor.Files, src []byte) (*dynamicpb.Message, error) {
	p := &textParser{src: src, files: files}
	m := dynamicpb.New(desc, files)
	if err := p.parseMessageBody(m); err != nil {
		return nil, fmt.Errorf("prototext: %w", err)
	}
	return m, nil
}

type textParser struct {
	src   []byte
	pos   int
	files *descriptor.Files
}

func (p *textParser) skipSpaceAndComments() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == '#' {
			p.skipLine()
			continue
		}
		if c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/' {
			p.skipLine()
			continue
		}
		break
	}
}

func (p *textParser) skipLine() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func (p *textParser) eof() bool {
	p.skipSpaceAndComments()
	return p.pos >= len(p.src)
}

func (p *textParser) peek() byte {
	p.skipSpaceAndComments()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// parseMessageBody consumes `field: value` and `field { ... }` entries until
// EOF or a closing '}' it leaves for the caller to consume.
func (p *textParser) parseMessageBody(m *dynamicpb.Message) error {
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.src) || p.src[p.pos] == '}' {
			return nil
		}
		name, err := p.parseIdent()
		if err != nil {
			return err
		}
		p.skipSpaceAndComments()
		if p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
		}
		p.skipSpaceAndComments()

		fd := m.Descriptor().FieldByName(name)
		mf := m.Descriptor().MapByName(name)

		switch {
		case mf != nil:
			if err := p.parseMapEntry(m, mf); err != nil {
				return err
			}
		case fd != nil && fd.Type == descriptor.TypeMessage:
			sub, err := p.parseSubMessage(m, fd)
			if err != nil {
				return err
			}
			if fd.IsRepeated() {
				if err := m.AppendRepeatedMessage(fd.Number, sub); err != nil {
					return err
				}
			} else if err := m.SetMessage(fd.Number, sub); err != nil {
				return err
			}
		case fd != nil:
			v, err := p.parseScalarValue(fd.Type)
			if err != nil {
				return err
			}
			if fd.IsRepeated() {
				if err := m.AppendRepeated(fd.Number, v); err != nil {
					return err
				}
			} else if err := m.Set(fd.Number, v); err != nil {
				return err
			}
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

func (p *textParser) parseSubMessage(m *dynamicpb.Message, fd *descriptor.FieldDescriptor) (*dynamicpb.Message, error) {
	if p.peek() != '{' {
		return nil, fmt.Errorf("expected '{' for message field %q", fd.Name)
	}
	p.pos++
	sub, err := m.NewMessage(fd.Number)
	if err != nil {
		return nil, err
	}
	if err := p.parseMessageBody(sub); err != nil {
		return nil, err
	}
	if err := p.closeBrace(); err != nil {
		return nil, err
	}
	return sub, nil
}

func (p *textParser) closeBrace() error {
	p.skipSpaceAndComments()
	if p.pos >= len(p.src) || p.src[p.pos] != '}' {
		return fmt.Errorf("expected '}'")
	}
	p.pos++
	return nil
}

func (p *textParser) parseMapEntry(m *dynamicpb.Message, mf *descriptor.MapDescriptor) error {
	if p.peek() != '{' {
		return fmt.Errorf("expected '{' for map field %q", mf.Name)
	}
	p.pos++

	var key any
	var haveKey bool
	var val any
	var subVal *dynamicpb.Message
	var haveVal bool

	for {
		p.skipSpaceAndComments()
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			p.pos++
			break
		}
		name, err := p.parseIdent()
		if err != nil {
			return err
		}
		p.skipSpaceAndComments()
		if p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
		}
		p.skipSpaceAndComments()

		switch name {
		case "key":
			key, err = p.parseScalarValue(descriptor.FromScalar(mf.KeyType))
			if err != nil {
				return err
			}
			haveKey = true
		case "value":
			if mf.ValueType == descriptor.TypeMessage {
				if p.peek() != '{' {
					return fmt.Errorf("expected '{' for map value")
				}
				p.pos++
				sub, err := p.newMapValueMessage(mf)
				if err != nil {
					return err
				}
				if err := p.parseMessageBody(sub); err != nil {
					return err
				}
				if err := p.closeBrace(); err != nil {
					return err
				}
				subVal = sub
			} else {
				val, err = p.parseScalarValue(mf.ValueType)
				if err != nil {
					return err
				}
			}
			haveVal = true
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}

	if !haveKey || !haveVal {
		return fmt.Errorf("map entry for %q missing key or value", mf.Name)
	}
	if mf.ValueType == descriptor.TypeMessage {
		return m.PutMap(mf.Number, key, subVal)
	}
	return m.PutMap(mf.Number, key, val)
}

func (p *textParser) newMapValueMessage(mf *descriptor.MapDescriptor) (*dynamicpb.Message, error) {
	if p.files == nil {
		return nil, fmt.Errorf("no registry to resolve map value type %q", mf.ValueTypeName)
	}
	md, ok := p.files.MessageByName(mf.ValueTypeName)
	if !ok {
		return nil, fmt.Errorf("unresolved map value type %q", mf.ValueTypeName)
	}
	return dynamicpb.New(md, p.files), nil
}

func (p *textParser) parseIdent() (string, error) {
	p.skipSpaceAndComments()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	if start == p.pos {
		return "", fmt.Errorf("expected identifier at byte %d", p.pos)
	}
	return string(p.src[start:p.pos]), nil
}

func (p *textParser) parseScalarValue(t descriptor.FieldType) (any, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch t {
	case descriptor.TypeString:
		return p.parseQuotedString()
	case descriptor.TypeBytes:
		s, err := p.parseQuotedString()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case descriptor.TypeBool:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		return strconv.ParseBool(tok)
	case descriptor.TypeFloat:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		f, err := parseTextFloat(tok)
		return float32(f), err
	case descriptor.TypeDouble:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		return parseTextFloat(tok)
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32, descriptor.TypeEnum:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(tok, 10, 32)
		return int32(n), err
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		return strconv.ParseInt(tok, 10, 64)
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseUint(tok, 10, 32)
		return uint32(n), err
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		tok, err := p.parseToken()
		if err != nil {
			return nil, err
		}
		return strconv.ParseUint(tok, 10, 64)
	default:
		return nil, fmt.Errorf("unsupported scalar type %v", t)
	}
}

func parseTextFloat(tok string) (float64, error) {
	switch strings.ToLower(tok) {
	case "inf", "infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	default:
		return strconv.ParseFloat(tok, 64)
	}
}

func (p *textParser) parseQuotedString() (string, error) {
	if p.src[p.pos] != '"' && p.src[p.pos] != '\'' {
		return "", fmt.Errorf("expected quoted string at byte %d", p.pos)
	}
	quote := p.src[p.pos]
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		if p.src[p.pos] == '\\' && p.pos+1 < len(p.src) {
			p.pos++
		}
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("unterminated string literal")
	}
	raw := p.src[start:p.pos]
	p.pos++
	return unescapeText(raw)
}

// unescapeText resolves text-format backslash escapes. strconv.Unquote
// can't be reused directly: a single-quoted protobuf string literal isn't a
// Go rune literal, so this walks the bytes itself instead.
func unescapeText(raw []byte) (string, error) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(raw[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(raw[i])
		}
	}
	return b.String(), nil
}

func (p *textParser) parseToken() (string, error) {
	p.skipSpaceAndComments()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '{' || c == '}' || c == ':' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected token at byte %d", p.pos)
	}
	return string(p.src[start:p.pos]), nil
}

// skipValue discards one unrecognized field's value: a braced sub-message
// (balancing nested braces) or a single bare/quoted scalar token.
func (p *textParser) skipValue() error {
	p.skipSpaceAndComments()
	if p.pos < len(p.src) && p.src[p.pos] == '{' {
		depth := 0
		for p.pos < len(p.src) {
			switch p.src[p.pos] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					p.pos++
					return nil
				}
			case '"', '\'':
				if _, err := p.parseQuotedString(); err != nil {
					return err
				}
				continue
			}
			p.pos++
		}
		return fmt.Errorf("unterminated message value")
	}
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		_, err := p.parseQuotedString()
		return err
	}
	_, err := p.parseToken()
	return err
}
