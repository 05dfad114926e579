// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linker

import (
	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/diag"
)

// validateAll runs semantic validation over every message and enum in the
// resolved file set, per spec.md 4.E.5.
func validateAll(rfs *ResolvedFileSet, diags *diag.List) {
	for _, f := range rfs.Files {
		for _, m := range f.AST.Messages {
			validateMessage(diags, m, f.AST.Syntax)
		}
		for _, e := range f.AST.Enums {
			validateEnum(diags, e, f.AST.Syntax)
		}
	}
}

type numberedField struct {
	pos    ast.Pos
	name   string
	number int32
}

func validateMessage(diags *diag.List, m *ast.Message, syntax ast.Syntax) {
	var all []numberedField
	for _, f := range m.Fields {
		all = append(all, numberedField{f.Pos, f.Name, f.Number})
	}
	for _, mf := range m.Maps {
		all = append(all, numberedField{mf.Pos, mf.Name, mf.Number})
	}
	for _, o := range m.Oneofs {
		for _, f := range o.Fields {
			all = append(all, numberedField{f.Pos, f.Name, f.Number})
		}
	}
	for _, g := range m.Groups {
		all = append(all, numberedField{g.Pos, g.Name, g.Number})
	}

	seen := map[int32]numberedField{}
	for _, nf := range all {
		if prev, ok := seen[nf.number]; ok {
			diags.Errorf(nf.pos, "duplicate field number %d (also used by %q)", nf.number, prev.name)
			continue
		}
		seen[nf.number] = nf

		for _, r := range m.ReservedRanges {
			if nf.number >= r.Start && nf.number <= r.End {
				diags.Errorf(nf.pos, "field %q uses number %d, which is in reserved range %d to %d", nf.name, nf.number, r.Start, r.End)
			}
		}
		for _, rn := range m.ReservedNames {
			if nf.name == rn {
				diags.Errorf(nf.pos, "field name %q is reserved", nf.name)
			}
		}
	}

	for _, mf := range m.Maps {
		if !isValidMapKeyType(mf.KeyType) {
			diags.Errorf(mf.Pos, "invalid map key type %q: must be an integral scalar, bool, or string", mf.KeyType)
		}
	}

	for _, g := range m.Groups {
		validateMessage(diags, g.Message, syntax)
	}
	for _, nm := range m.Messages {
		validateMessage(diags, nm, syntax)
	}
	for _, ne := range m.Enums {
		validateEnum(diags, ne, syntax)
	}
}

func isValidMapKeyType(k ast.ScalarKind) bool {
	switch k {
	case ast.Double, ast.Float, ast.Bytes:
		return false
	default:
		return k != 0
	}
}

func validateEnum(diags *diag.List, e *ast.Enum, syntax ast.Syntax) {
	if syntax == ast.Proto3 && len(e.Values) > 0 && e.Values[0].Number != 0 {
		diags.Errorf(e.Values[0].Pos, "proto3 enum %q: first value must be 0", e.Name)
	}

	seen := map[int32]string{}
	for _, v := range e.Values {
		if prev, ok := seen[v.Number]; ok && !e.AllowAlias {
			diags.Errorf(v.Pos, "enum %q: duplicate value %d (also used by %q); set allow_alias = true to permit aliases", e.Name, v.Number, prev)
			continue
		}
		seen[v.Number] = v.Name

		for _, r := range e.ReservedRanges {
			if v.Number >= r.Start && v.Number <= r.End {
				diags.Errorf(v.Pos, "enum value %q uses number %d, which is in reserved range %d to %d", v.Name, v.Number, r.Start, r.End)
			}
		}
		for _, rn := range e.ReservedNames {
			if v.Name == rn {
				diags.Errorf(v.Pos, "enum value name %q is reserved", v.Name)
			}
		}
	}
}
