// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lexer

import "testing"

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New("test.proto", []byte(src))
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lex error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out
		}
	}
}

func TestIdentAndPunct(t *testing.T) {
	toks := tokens(t, `message Foo { int32 x = 1; }`)
	want := []Kind{Ident, Ident, LBrace, Ident, Ident, Equals, Int, Semi, RBrace, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestComments(t *testing.T) {
	toks := tokens(t, "// line\nident1 /* block */ ident2")
	if len(toks) != 3 || toks[0].Text != "ident1" || toks[1].Text != "ident2" {
		t.Fatalf("got %+v", toks)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("test.proto", []byte("/* never closed"))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error")
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind Kind
	}{
		{"0x1F", Int},
		{"017", Int},
		{"123", Int},
		{"1.5", Float},
		{"1e10", Float},
		{"1.5e-3", Float},
	}
	for _, c := range cases {
		toks := tokens(t, c.src)
		if toks[0].Kind != c.kind {
			t.Errorf("%q: got %v, want %v", c.src, toks[0].Kind, c.kind)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := tokens(t, `"a\nb\x41\101B"`)
	got, err := ResolveString(toks[0].Text)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nbAAB" {
		t.Fatalf("got %q", got)
	}
}

func TestStringCannotCrossNewline(t *testing.T) {
	l := New("test.proto", []byte("\"abc\ndef\""))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error")
	}
}

func TestPeekIsSingleToken(t *testing.T) {
	l := New("test.proto", []byte("foo bar"))
	p1, _ := l.Peek()
	p2, _ := l.Peek()
	if p1 != p2 {
		t.Fatalf("peek not idempotent: %+v != %+v", p1, p2)
	}
	n, _ := l.Next()
	if n != p1 {
		t.Fatalf("next != peeked: %+v != %+v", n, p1)
	}
	n2, _ := l.Next()
	if n2.Text != "bar" {
		t.Fatalf("got %q", n2.Text)
	}
}
