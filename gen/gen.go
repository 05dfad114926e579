// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gen generates Go source from a compiled file descriptor: one
// struct per message, one interface-plus-variant-structs group per oneof,
// and Encode/CalcSize/Decode/Deinit/ToJSON/FromJSON methods for each message.
//
// Generated messages are addressed by their simple (unqualified) name within
// the output file; this generator does not yet support splitting a single
// linked program across multiple generated Go packages, so every message and
// enum a file refers to is expected to have been declared in the same
// .proto file (directly, or via one of its nested types, which BuildFile
// already flattens into FileDescriptor.Messages).
package gen

import (
	"bytes"
	"fmt"
	"go/format"

	"github.com/mattnite/protoc-zero/ast"
	"github.com/mattnite/protoc-zero/descriptor"
)

// File accumulates generated Go source for one .proto file.
type File struct {
	buf          bytes.Buffer
	PackageName  string
	fd           *descriptor.FileDescriptor
	needsOM      bool // at least one map field: import go-ordered-map/v2
	needsStrconv bool // at least one enum, or any message (ToJSON/FromJSON use it)
	needsBase64  bool // at least one bytes field or bytes map value
	needsJSON    bool // at least one message: ToJSON/FromJSON support imports
}

// P writes a line to the output, following fmt.Sprint's conversion rules for
// each argument and inserting no separating spaces, mirroring the buffer
// idiom generated-code writers in this codebase use.
func (f *File) P(args ...any) {
	for _, a := range args {
		fmt.Fprint(&f.buf, a)
	}
	fmt.Fprintln(&f.buf)
}

// Generate renders fd (already built by descriptor.BuildFile) as a complete
// Go source file in package pkgName, gofmt-ed before being returned.
func Generate(fd *descriptor.FileDescriptor, pkgName string) ([]byte, error) {
	f := &File{PackageName: pkgName, fd: fd}

	for _, m := range fd.Messages {
		if len(m.Maps) > 0 {
			f.needsOM = true
		}
		if messageUsesBytes(m) {
			f.needsBase64 = true
		}
	}
	f.needsJSON = len(fd.Messages) > 0
	f.needsStrconv = len(fd.Enums) > 0 || f.needsJSON

	f.P("// Code generated from ", fd.Name, ". DO NOT EDIT.")
	f.P()
	f.P("package ", pkgName)
	f.P()
	f.P("import (")
	if f.needsJSON {
		f.P(`	"bytes"`)
	}
	if f.needsBase64 {
		f.P(`	"encoding/base64"`)
	}
	if f.needsJSON {
		f.P(`	"encoding/json"`)
	}
	if f.needsStrconv {
		f.P(`	"strconv"`)
	}
	f.P()
	if f.needsJSON {
		f.P(`	"github.com/mattnite/protoc-zero/encoding/protojson"`)
	}
	f.P(`	"github.com/mattnite/protoc-zero/wire"`)
	if f.needsOM {
		f.P(`	orderedmap "github.com/wk8/go-ordered-map/v2"`)
	}
	f.P(")")
	f.P()

	for _, e := range fd.Enums {
		genEnum(f, e)
	}
	for _, m := range fd.Messages {
		genMessage(f, m)
	}

	out, err := format.Source(f.buf.Bytes())
	if err != nil {
		return f.buf.Bytes(), fmt.Errorf("gen: formatting %s: %w", fd.Name, err)
	}
	return out, nil
}

func genEnum(f *File, e *descriptor.EnumDescriptor) {
	name := goExportName(e.Name)
	f.P("type ", name, " int32")
	f.P()
	f.P("const (")
	for _, v := range e.Values {
		f.P("\t", name, "_", v.Name, " ", name, " = ", v.Number)
	}
	f.P(")")
	f.P()
	f.P("func (x ", name, ") String() string {")
	f.P("\tswitch x {")
	seen := map[int32]bool{}
	for _, v := range e.Values {
		if seen[v.Number] {
			continue // allow_alias: only the first name per number gets a String() case
		}
		seen[v.Number] = true
		f.P("\tcase ", v.Number, ":")
		f.P("\t\treturn ", fmt.Sprintf("%q", v.Name))
	}
	f.P("\tdefault:")
	f.P("\t\treturn \"", name, "(\" + strconv.FormatInt(int64(x), 10) + \")\"")
	f.P("\t}")
	f.P("}")
	f.P()
}

// messageByFQN finds the built message descriptor for fqn within the file
// currently being generated.
func (f *File) messageByFQN(fqn string) *descriptor.MessageDescriptor {
	for _, m := range f.fd.Messages {
		if m.FQN == fqn {
			return m
		}
	}
	return nil
}

func (f *File) enumByFQN(fqn string) *descriptor.EnumDescriptor {
	for _, e := range f.fd.Enums {
		if e.FQN == fqn {
			return e
		}
	}
	return nil
}

func genMessage(f *File, m *descriptor.MessageDescriptor) {
	name := goExportName(m.Name)

	for _, o := range m.Oneofs {
		genOneofInterface(f, name, o, m)
	}

	f.P("type ", name, " struct {")
	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue // emitted as the oneof's interface-typed field below, once per oneof
		}
		f.P("\t", goFieldName(fld.Name), " ", goFieldType(f, fld), " // field ", fld.Number)
	}
	for i, o := range m.Oneofs {
		f.P("\t", goFieldName(o.Name), " ", name, "_", goExportName(o.Name), "Oneof // oneof index ", i)
	}
	for _, mf := range m.Maps {
		f.P("\t", goFieldName(mf.Name), " *orderedmap.OrderedMap[", mapKeyGoType(mf.KeyType), ", ", mapValueGoType(f, mf), "] // map field ", mf.Number)
	}
	f.P("\tUnknown []byte")
	f.P("}")
	f.P()

	genCodec(f, name, m)
	genJSON(f, name, m)
}

// messageUsesBytes reports whether m (or any message nested under it in the
// file — nested types are flattened into FileDescriptor.Messages already by
// descriptor.BuildFile, so a plain field/map scan here is sufficient)
// declares a bytes-typed field, directly or as a map value.
func messageUsesBytes(m *descriptor.MessageDescriptor) bool {
	for _, fld := range m.Fields {
		if fld.Type == descriptor.TypeBytes {
			return true
		}
	}
	for _, mf := range m.Maps {
		if mf.ValueType == descriptor.TypeBytes {
			return true
		}
	}
	return false
}

func genOneofInterface(f *File, msgName string, o *descriptor.OneofDescriptor, m *descriptor.MessageDescriptor) {
	ifaceName := msgName + "_" + goExportName(o.Name) + "Oneof"
	f.P("type ", ifaceName, " interface {")
	f.P("\tis", ifaceName, "()")
	f.P("}")
	f.P()
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("type ", variant, " struct {")
		f.P("\t", goFieldName(fld.Name), " ", goFieldType(f, fld))
		f.P("}")
		f.P()
		f.P("func (*", variant, ") is", ifaceName, "() {}")
		f.P()
	}
}

func goFieldType(f *File, fld *descriptor.FieldDescriptor) string {
	base := scalarGoType(fld.Type)
	switch fld.Type {
	case descriptor.TypeMessage:
		base = "*" + goTypeRef(fld.TypeName)
	case descriptor.TypeEnum:
		base = goTypeRef(fld.TypeName)
	}
	if fld.IsRepeated() {
		return "[]" + base
	}
	// An optional scalar/enum tracks explicit presence (proto2 `optional`,
	// or proto3 `optional`), so its zero value must stay distinguishable
	// from "unset". Message fields are already pointers.
	if fld.IsOptional() && fld.Type != descriptor.TypeMessage {
		return "*" + base
	}
	return base
}

func mapKeyGoType(k ast.ScalarKind) string {
	return scalarGoType(descriptor.FromScalar(k))
}

func mapValueGoType(f *File, mf *descriptor.MapDescriptor) string {
	switch mf.ValueType {
	case descriptor.TypeMessage:
		return "*" + goTypeRef(mf.ValueTypeName)
	case descriptor.TypeEnum:
		return goTypeRef(mf.ValueTypeName)
	default:
		return scalarGoType(mf.ValueType)
	}
}

func scalarGoType(t descriptor.FieldType) string {
	switch t {
	case descriptor.TypeDouble:
		return "float64"
	case descriptor.TypeFloat:
		return "float32"
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		return "int32"
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return "int64"
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		return "uint32"
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return "uint64"
	case descriptor.TypeBool:
		return "bool"
	case descriptor.TypeString:
		return "string"
	case descriptor.TypeBytes:
		return "[]byte"
	default:
		return "any"
	}
}
