// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linker

import (
	"strings"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/diag"
)

// lookup resolves name as written inside scope, per spec.md 4.E.4: leading
// dot means "look up in the global table directly"; otherwise walk the
// scope chain from most specific to least, then the file-package root, then
// the absolute root. The first match wins.
func lookup(global map[string]*TypeInfo, scope, name string) (*TypeInfo, bool) {
	if strings.HasPrefix(name, ".") {
		ti, ok := global[name]
		return ti, ok
	}

	s := scope
	for {
		if ti, ok := global[s+"."+name]; ok {
			return ti, ok
		}
		if s == "" {
			break
		}
		idx := strings.LastIndex(s, ".")
		if idx < 0 {
			s = ""
		} else {
			s = s[:idx]
		}
	}
	if ti, ok := global["."+name]; ok {
		return ti, true
	}
	return nil, false
}

// resolveAllReferences walks every named type reference in the resolved
// file set and records its resolution (or a diagnostic) into rfs.
func resolveAllReferences(rfs *ResolvedFileSet, diags *diag.List) {
	for _, f := range rfs.Files {
		pkgScope := ""
		if f.AST.Package != "" {
			pkgScope = "." + f.AST.Package
		}
		for _, m := range f.AST.Messages {
			resolveMessage(rfs, diags, m, pkgScope)
		}
		for _, s := range f.AST.Services {
			resolveService(rfs, diags, s, pkgScope)
		}
		for _, ext := range f.AST.Extensions {
			resolveFieldRef(rfs, diags, ext, pkgScope)
			resolveExtendee(rfs, diags, ext, pkgScope)
		}
	}
}

func resolveMessage(rfs *ResolvedFileSet, diags *diag.List, m *ast.Message, scope string) {
	selfScope := scope + "." + m.Name
	for _, fld := range m.Fields {
		resolveFieldRef(rfs, diags, fld, selfScope)
	}
	for _, o := range m.Oneofs {
		for _, fld := range o.Fields {
			resolveFieldRef(rfs, diags, fld, selfScope)
		}
	}
	for _, mf := range m.Maps {
		if !mf.ValueType.IsScalar() {
			ti, ok := lookup(rfs.Global, selfScope, mf.ValueType.Named)
			if !ok {
				diags.Errorf(mf.Pos, "unresolved type reference %q", mf.ValueType.Named)
			} else {
				rfs.MapValueTypes[mf] = ti
			}
		}
	}
	for _, g := range m.Groups {
		resolveMessage(rfs, diags, g.Message, selfScope)
	}
	for _, ext := range m.Extensions {
		resolveFieldRef(rfs, diags, ext, selfScope)
		resolveExtendee(rfs, diags, ext, selfScope)
	}
	for _, nm := range m.Messages {
		resolveMessage(rfs, diags, nm, selfScope)
	}
}

func resolveFieldRef(rfs *ResolvedFileSet, diags *diag.List, f *ast.Field, scope string) {
	if f.Type.IsScalar() {
		return
	}
	ti, ok := lookup(rfs.Global, scope, f.Type.Named)
	if !ok {
		diags.Errorf(f.Pos, "unresolved type reference %q", f.Type.Named)
		return
	}
	rfs.FieldTypes[f] = ti
}

func resolveExtendee(rfs *ResolvedFileSet, diags *diag.List, f *ast.Field, scope string) {
	if f.Extendee == "" {
		return
	}
	ti, ok := lookup(rfs.Global, scope, f.Extendee)
	if !ok {
		diags.Errorf(f.Pos, "unresolved extend target %q", f.Extendee)
		return
	}
	if ti.Kind != MessageKind {
		diags.Errorf(f.Pos, "%q is not a message, cannot be extended", f.Extendee)
		return
	}
	rfs.ExtendTargets[f] = ti
}

func resolveService(rfs *ResolvedFileSet, diags *diag.List, s *ast.Service, scope string) {
	for _, method := range s.Methods {
		if ti, ok := lookup(rfs.Global, scope, method.InputType); ok {
			rfs.MethodInput[method] = ti
		} else {
			diags.Errorf(method.Pos, "unresolved type reference %q", method.InputType)
		}
		if ti, ok := lookup(rfs.Global, scope, method.OutputType); ok {
			rfs.MethodOutput[method] = ti
		} else {
			diags.Errorf(method.Pos, "unresolved type reference %q", method.OutputType)
		}
	}
}
