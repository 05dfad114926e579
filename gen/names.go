// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import "strings"

// goExportName converts a proto identifier (message, enum, field, or enum
// value name; snake_case or already-PascalCase) to an exported Go
// identifier, mirroring the original module's own field-naming convention:
// split on underscores, title-case each piece, and join.
func goExportName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if goKeywords[out] {
		return out + "_"
	}
	return out
}

// goFieldName is goExportName unchanged. A oneof member's field name never
// needs disambiguating from its wrapper struct's type name, since Go keeps
// field names and type names apart.
func goFieldName(name string) string {
	return goExportName(name)
}

// goUnexportName lower-cases the first byte of an exported Go identifier.
// No generator code calls it.
func goUnexportName(exported string) string {
	if exported == "" {
		return exported
	}
	return strings.ToLower(exported[:1]) + exported[1:]
}

// snakeToLowerCamel mirrors descriptor.jsonName exactly; gen keeps its own
// copy so it never needs an import of the descriptor package's internals.
// No generator code calls it.
func snakeToLowerCamel(name string) string {
	out := make([]byte, 0, len(name))
	upperNext := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if upperNext && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upperNext = false
		out = append(out, c)
	}
	return string(out)
}

var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// lastComponent returns the final dotted segment of an FQN, e.g.
// ".shop.order.Money" -> "Money".
func lastComponent(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[idx+1:]
}

// goTypeRef returns the exported Go identifier a FQN resolves to within a
// single generated file: since this generator emits one package per
// top-level .proto package and does not yet support cross-package imports
// of generated types, every FQN it is asked to render is expected to name a
// type declared in the same file (see gen.go's doc comment on that
// limitation).
func goTypeRef(fqn string) string {
	return goExportName(lastComponent(fqn))
}
