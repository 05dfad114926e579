// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package descriptor

import (
	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/linker"
)

// BuildFile converts one linked file into a *FileDescriptor, resolving every
// message- and enum-typed field through rfs. It does not itself register the
// result into a Files registry; callers that need cross-file lookups do that
// with Files.RegisterFile once every file in a program has been built (files
// may reference each other's messages, so building is kept separate from
// registering to avoid a two-pass dependency on registration order).
func BuildFile(rfs *linker.ResolvedFileSet, lf *linker.File) *FileDescriptor {
	fd := &FileDescriptor{
		Name:    lf.AST.Path,
		Package: lf.AST.Package,
		Syntax:  lf.AST.Syntax,
	}
	for _, m := range lf.AST.Messages {
		top := buildMessage(rfs, m, lf.AST.Syntax)
		fd.Messages = append(fd.Messages, top)
		nested, nestedEnums := flattenNested(top)
		fd.Messages = append(fd.Messages, nested...)
		fd.Enums = append(fd.Enums, nestedEnums...)
	}
	for _, e := range lf.AST.Enums {
		fd.Enums = append(fd.Enums, buildEnum(e, fqnOfEnum(rfs, e), lf.AST.Syntax))
	}
	return fd
}

// flattenNested returns every message and enum nested (at any depth) inside
// m, so the registry and code generator can look a nested type up by FQN
// without walking the message tree themselves.
func flattenNested(m *MessageDescriptor) (messages []*MessageDescriptor, enums []*EnumDescriptor) {
	enums = append(enums, m.NestedEnums...)
	for _, nm := range m.Nested {
		messages = append(messages, nm)
		nestedMsgs, nestedEnums := flattenNested(nm)
		messages = append(messages, nestedMsgs...)
		enums = append(enums, nestedEnums...)
	}
	return messages, enums
}

// fqnOf returns the FQN the linker assigned to m, found by scanning rfs's
// global table. BuildFile is always called after a successful Link, so the
// lookup is guaranteed to find exactly one entry whose Message pointer is m.
func fqnOf(rfs *linker.ResolvedFileSet, m *ast.Message) string {
	for fqn, ti := range rfs.Global {
		if ti.Kind == linker.MessageKind && ti.Message == m {
			return fqn
		}
	}
	return ""
}

func fqnOfEnum(rfs *linker.ResolvedFileSet, e *ast.Enum) string {
	for fqn, ti := range rfs.Global {
		if ti.Kind == linker.EnumKind && ti.Enum == e {
			return fqn
		}
	}
	return ""
}

// enumSyntaxOf finds the syntax of the file that declares e, so a nested
// enum is classified open/closed the same way BuildFile classifies top-level
// ones, regardless of how deep it is nested.
func enumSyntaxOf(rfs *linker.ResolvedFileSet, e *ast.Enum) ast.Syntax {
	for _, ti := range rfs.Global {
		if ti.Kind == linker.EnumKind && ti.Enum == e {
			if lf := rfs.ByPath(ti.File); lf != nil {
				return lf.AST.Syntax
			}
		}
	}
	return ast.Proto3
}

func buildMessage(rfs *linker.ResolvedFileSet, m *ast.Message, syntax ast.Syntax) *MessageDescriptor {
	md := &MessageDescriptor{
		Name: m.Name,
		FQN:  fqnOf(rfs, m),
	}

	for _, o := range m.Oneofs {
		md.Oneofs = append(md.Oneofs, &OneofDescriptor{Name: o.Name})
	}

	appendField := func(f *ast.Field) {
		fdsc := buildField(rfs, f, syntax)
		idx := len(md.Fields)
		md.Fields = append(md.Fields, fdsc)
		if f.OneofIndex >= 0 && f.OneofIndex < len(md.Oneofs) {
			od := md.Oneofs[f.OneofIndex]
			od.FieldIndices = append(od.FieldIndices, idx)
			fdsc.OneofIndex = f.OneofIndex
		} else {
			fdsc.OneofIndex = -1
		}
	}

	for _, f := range m.Fields {
		appendField(f)
	}
	for _, o := range m.Oneofs {
		for _, f := range o.Fields {
			appendField(f)
		}
	}
	for _, mf := range m.Maps {
		md.Maps = append(md.Maps, buildMap(rfs, mf))
	}
	for _, g := range m.Groups {
		appendField(groupField(g))
	}

	for _, nm := range m.Messages {
		md.Nested = append(md.Nested, buildMessage(rfs, nm, syntax))
	}
	for _, ne := range m.Enums {
		md.NestedEnums = append(md.NestedEnums, buildEnum(ne, fqnOfEnum(rfs, ne), enumSyntaxOf(rfs, ne)))
	}

	return md
}

// groupField synthesizes the message-typed field view of a proto2 group, per
// ast.Group's doc comment: the group is both a nested message and a field of
// that message type named after the lower-cased group name.
func groupField(g *ast.Group) *ast.Field {
	return &ast.Field{
		Pos:        g.Pos,
		Name:       lowerFirst(g.Name),
		Number:     g.Number,
		Label:      g.Label,
		Type:       ast.TypeRef{Named: g.Name},
		OneofIndex: -1,
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func buildField(rfs *linker.ResolvedFileSet, f *ast.Field, syntax ast.Syntax) *FieldDescriptor {
	fdsc := &FieldDescriptor{
		Number:   f.Number,
		Name:     f.Name,
		JSONName: jsonName(f.Name),
		Label:    f.Label,
	}
	if f.Type.IsScalar() {
		fdsc.Type = FromScalar(f.Type.Scalar)
	} else if ti, ok := rfs.ResolveFieldType(f); ok {
		fdsc.TypeName = ti.FQN
		if ti.Kind == linker.EnumKind {
			fdsc.Type = TypeEnum
		} else {
			fdsc.Type = TypeMessage
		}
	}
	// proto3's wire default for a repeated numeric/enum scalar is packed;
	// proto2 defaults unpacked unless `[packed=true]` says otherwise.
	if fdsc.Label == ast.LabelRepeated && fdsc.Type != TypeMessage && fdsc.Type != TypeString && fdsc.Type != TypeBytes {
		fdsc.Packed = syntax == ast.Proto3 || syntax == ast.SyntaxUnspecified
	}
	for _, opt := range f.Options {
		switch opt.Name {
		case "packed":
			if b, ok := opt.Value.(bool); ok {
				fdsc.Packed = b
			}
		case "deprecated":
			if b, ok := opt.Value.(bool); ok {
				fdsc.Deprecated = b
			}
		case "default":
			fdsc.HasDefault = true
			fdsc.Default = stringifyDefault(opt.Value)
		case "json_name":
			if s, ok := opt.Value.(string); ok {
				fdsc.JSONName = s
			}
		}
	}
	return fdsc
}

func stringifyDefault(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

func buildMap(rfs *linker.ResolvedFileSet, mf *ast.MapField) *MapDescriptor {
	md := &MapDescriptor{
		Name:     mf.Name,
		Number:   mf.Number,
		KeyType:  mf.KeyType,
		JSONName: jsonName(mf.Name),
	}
	if mf.ValueType.IsScalar() {
		md.ValueType = FromScalar(mf.ValueType.Scalar)
	} else if ti, ok := rfs.MapValueTypes[mf]; ok {
		md.ValueTypeName = ti.FQN
		if ti.Kind == linker.EnumKind {
			md.ValueType = TypeEnum
		} else {
			md.ValueType = TypeMessage
		}
	}
	return md
}

func buildEnum(e *ast.Enum, fqn string, syntax ast.Syntax) *EnumDescriptor {
	ed := &EnumDescriptor{
		Name: e.Name,
		FQN:  fqn,
		Open: syntax == ast.Proto3 || syntax == ast.SyntaxUnspecified,
	}
	for _, v := range e.Values {
		ed.Values = append(ed.Values, EnumValueDescriptor{Name: v.Name, Number: v.Number})
	}
	return ed
}

// jsonName computes the default JSON name of a snake_case proto field name:
// lowerCamelCase, per the wire-format's standard field-name projection.
func jsonName(name string) string {
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
