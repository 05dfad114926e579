// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lexer

import (
	"fmt"
	"strings"

	"github.com/mattnite/protoc-zero/ast"
)

// Error is a lexical error: an invalid character, an unterminated comment
// or string literal, a bad escape sequence, or a malformed number.
type Error struct {
	Pos ast.Pos
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Lexer is a stateful cursor over a UTF-8 source buffer.
type Lexer struct {
	file string
	src  []byte
	pos  int // byte offset
	line int // 1-based
	col  int // 1-based

	peeked    *Token
	peekedErr *Error
}

// New returns a lexer positioned at the start of src.
func New(file string, src []byte) *Lexer {
	return &Lexer{file: file, src: src, line: 1, col: 1}
}

func (l *Lexer) curPos() ast.Pos {
	return ast.Pos{File: l.file, Line: l.line, Column: l.col}
}

func (l *Lexer) errf(pos ast.Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// Peek returns the next token without consuming it. It is single-token
// lookahead per spec.md 4.C.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	if l.peekedErr != nil {
		return Token{}, l.peekedErr
	}
	tok, err := l.scan()
	if err != nil {
		l.peekedErr = err.(*Error)
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	if l.peekedErr != nil {
		err := l.peekedErr
		l.peekedErr = nil
		return Token{}, err
	}
	return l.scan()
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool { return isIdentStart(b) || (b >= '0' && b <= '9') }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *Lexer) skipSpaceAndComments() error {
	for {
		switch l.peekByte() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekByteAt(1) == '/' {
				for l.peekByte() != '\n' && l.pos < len(l.src) {
					l.advance()
				}
				continue
			}
			if l.peekByteAt(1) == '*' {
				start := l.curPos()
				l.advance()
				l.advance()
				closed := false
				for l.pos < len(l.src) {
					if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
						l.advance()
						l.advance()
						closed = true
						break
					}
					l.advance()
				}
				if !closed {
					return l.errf(start, "unterminated block comment")
				}
				continue
			}
			return nil
		default:
			return nil
		}
	}
}

func (l *Lexer) scan() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	pos := l.curPos()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: pos}, nil
	}
	b := l.peekByte()

	switch {
	case isIdentStart(b):
		return l.scanIdent(pos)
	case isDigit(b):
		return l.scanNumber(pos)
	case b == '"' || b == '\'':
		return l.scanString(pos, b)
	}

	if k, ok := punct[b]; ok {
		l.advance()
		return Token{Kind: k, Text: string(b), Pos: pos}, nil
	}
	return Token{}, l.errf(pos, "invalid character %q", b)
}

func (l *Lexer) scanIdent(pos ast.Pos) (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.advance()
	}
	return Token{Kind: Ident, Text: string(l.src[start:l.pos]), Pos: pos}, nil
}

func (l *Lexer) scanNumber(pos ast.Pos) (Token, error) {
	start := l.pos

	if l.peekByte() == '0' && (l.peekByteAt(1) == 'x' || l.peekByteAt(1) == 'X') {
		l.advance()
		l.advance()
		digitsStart := l.pos
		for isHexDigit(l.peekByte()) {
			l.advance()
		}
		if l.pos == digitsStart {
			return Token{}, l.errf(pos, "malformed hex literal")
		}
		return Token{Kind: Int, Text: string(l.src[start:l.pos]), Pos: pos}, nil
	}

	if l.peekByte() == '0' && isDigit(l.peekByteAt(1)) {
		for isDigit(l.peekByte()) {
			b := l.peekByte()
			if b > '7' {
				return Token{}, l.errf(pos, "malformed octal literal")
			}
			l.advance()
		}
		return Token{Kind: Int, Text: string(l.src[start:l.pos]), Pos: pos}, nil
	}

	for isDigit(l.peekByte()) {
		l.advance()
	}

	isFloat := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advance()
		}
		if !isDigit(l.peekByte()) {
			// not actually an exponent; rewind
			l.pos, l.line, l.col = save, saveLine, saveCol
		} else {
			isFloat = true
			for isDigit(l.peekByte()) {
				l.advance()
			}
		}
	}

	kind := Int
	if isFloat {
		kind = Float
	}
	return Token{Kind: kind, Text: string(l.src[start:l.pos]), Pos: pos}, nil
}

func (l *Lexer) scanString(pos ast.Pos, quote byte) (Token, error) {
	start := l.pos
	l.advance() // opening quote
	for {
		if l.pos >= len(l.src) {
			return Token{}, l.errf(pos, "unterminated string literal")
		}
		b := l.peekByte()
		if b == '\n' {
			return Token{}, l.errf(pos, "string literal crosses a newline")
		}
		if b == quote {
			l.advance()
			break
		}
		if b == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return Token{}, l.errf(pos, "unterminated string literal")
			}
			l.advance() // the escaped character; validated in ResolveString
			continue
		}
		l.advance()
	}
	return Token{Kind: String, Text: string(l.src[start:l.pos]), Pos: pos}, nil
}

// ResolveString expands the escapes in the lexical form of a String token
// (including its surrounding quotes) into its runtime value. It is kept
// separate from scanning so the raw source slice backing the token stays
// reusable even when a caller never needs the resolved value.
func ResolveString(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("malformed string literal %q", raw)
	}
	quote := raw[0]
	body := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(body))

	i := 0
	for i < len(body) {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("unterminated escape in %q", raw)
		}
		e := body[i]
		switch e {
		case 'a':
			b.WriteByte('\a')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'v':
			b.WriteByte('\v')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case '\'':
			b.WriteByte('\'')
			i++
		case '"':
			b.WriteByte('"')
			i++
		case 'x', 'X':
			i++
			j := i
			for j < len(body) && j < i+2 && isHexDigit(body[j]) {
				j++
			}
			if j == i {
				return "", fmt.Errorf("invalid \\x escape in %q", raw)
			}
			v, _ := parseHex(body[i:j])
			b.WriteByte(byte(v))
			i = j
		case 'u':
			i++
			if i+4 > len(body) {
				return "", fmt.Errorf("invalid \\u escape in %q", raw)
			}
			v, err := parseHex(body[i : i+4])
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape in %q", raw)
			}
			b.WriteRune(rune(v))
			i += 4
		case 'U':
			i++
			if i+8 > len(body) {
				return "", fmt.Errorf("invalid \\U escape in %q", raw)
			}
			v, err := parseHex(body[i : i+8])
			if err != nil || v > 0x10FFFF {
				return "", fmt.Errorf("invalid \\U escape in %q", raw)
			}
			b.WriteRune(rune(v))
			i += 8
		default:
			if e >= '0' && e <= '7' {
				j := i
				for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '7' {
					j++
				}
				v, _ := parseOctal(body[i:j])
				b.WriteByte(byte(v))
				i = j
			} else {
				return "", fmt.Errorf("invalid escape \\%c in %q", e, raw)
			}
		}
	}
	_ = quote
	return b.String(), nil
}

func parseHex(s string) (uint32, error) {
	var v uint32
	for _, c := range []byte(s) {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, fmt.Errorf("not hex: %q", s)
		}
	}
	return v, nil
}

func parseOctal(s string) (uint32, error) {
	var v uint32
	for _, c := range []byte(s) {
		if c < '0' || c > '7' {
			return 0, fmt.Errorf("not octal: %q", s)
		}
		v = v*8 + uint32(c-'0')
	}
	return v, nil
}
