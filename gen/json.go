// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"
	"strconv"

	"github.com/mattnite/protoc-zero/descriptor"
)

// genJSON emits ToJSON/FromJSON for message m. Each walks fields in the
// same declaration order genCodec's CalcSize/Encode do, recursing into a
// sub-message's own ToJSON/FromJSON rather than reaching into its fields
// directly, so nesting composes the same way Encode/Decode already does.
func genJSON(f *File, name string, m *descriptor.MessageDescriptor) {
	genToJSON(f, name, m)
	genFromJSON(f, name, m)
}

func genToJSON(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("func (x *", name, ") ToJSON() ([]byte, error) {")
	f.P("\tvar buf bytes.Buffer")
	f.P("\tbuf.WriteByte('{')")
	f.P("\tfirst := true")
	f.P("\twriteComma := func() {")
	f.P("\t\tif !first {")
	f.P("\t\t\tbuf.WriteByte(',')")
	f.P("\t\t}")
	f.P("\t\tfirst = false")
	f.P("\t}")

	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue
		}
		jsonMarshalField(f, "x."+goFieldName(fld.Name), fld)
	}
	for i, o := range m.Oneofs {
		jsonMarshalOneof(f, name, "x."+goFieldName(o.Name), m, i)
	}
	for _, mf := range m.Maps {
		jsonMarshalMap(f, "x."+goFieldName(mf.Name), mf)
	}

	f.P("\tbuf.WriteByte('}')")
	f.P("\treturn buf.Bytes(), nil")
	f.P("}")
	f.P()
}

func jsonMarshalField(f *File, expr string, fld *descriptor.FieldDescriptor) {
	if fld.IsRepeated() {
		f.P("\tif len(", expr, ") > 0 {")
		f.P("\t\twriteComma()")
		f.P("\t\tbuf.WriteString(", jsonNameLit(fld.JSONName), ")")
		f.P("\t\tbuf.WriteByte('[')")
		f.P("\t\tfor i, e := range ", expr, " {")
		f.P("\t\t\tif i > 0 {")
		f.P("\t\t\t\tbuf.WriteByte(',')")
		f.P("\t\t\t}")
		jsonWriteValue(f, "e", fld.Type, "\t\t\t")
		f.P("\t\t}")
		f.P("\t\tbuf.WriteByte(']')")
		f.P("\t}")
		return
	}

	valExpr := expr
	if fld.IsOptional() && fld.Type != descriptor.TypeMessage {
		valExpr = "*" + expr
	}
	if fld.IsRequired() {
		// required fields are always populated: emitting a zero value is
		// correct, since the alternative is a peer seeing the field as absent.
		f.P("\twriteComma()")
		f.P("\tbuf.WriteString(", jsonNameLit(fld.JSONName), ")")
		jsonWriteValue(f, valExpr, fld.Type, "\t")
		return
	}
	f.P("\tif ", jsonPopulatedCond(fld, expr), " {")
	f.P("\t\twriteComma()")
	f.P("\t\tbuf.WriteString(", jsonNameLit(fld.JSONName), ")")
	jsonWriteValue(f, valExpr, fld.Type, "\t\t")
	f.P("\t}")
}

// jsonPopulatedCond reports whether expr (a field access, always of the
// field's declared Go type — not yet dereferenced for an `optional` scalar)
// should be written to JSON: an `optional` scalar gates on presence alone,
// not on its (possibly zero) value.
func jsonPopulatedCond(fld *descriptor.FieldDescriptor, expr string) string {
	if fld.IsOptional() && fld.Type != descriptor.TypeMessage {
		return expr + " != nil"
	}
	switch fld.Type {
	case descriptor.TypeMessage:
		return expr + " != nil"
	case descriptor.TypeString, descriptor.TypeBytes:
		return "len(" + expr + ") > 0"
	case descriptor.TypeBool:
		return expr
	default:
		return expr + " != 0"
	}
}

// jsonWriteValue emits the statements that append one JSON value for expr,
// of declared type t, to buf.
func jsonWriteValue(f *File, expr string, t descriptor.FieldType, indent string) {
	switch t {
	case descriptor.TypeMessage:
		f.P(indent, "sub, err := ", expr, ".ToJSON()")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn nil, err")
		f.P(indent, "}")
		f.P(indent, "buf.Write(sub)")
	case descriptor.TypeBool:
		f.P(indent, "buf.WriteString(strconv.FormatBool(", expr, "))")
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32, descriptor.TypeEnum:
		f.P(indent, "buf.WriteString(strconv.FormatInt(int64(", expr, "), 10))")
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		f.P(indent, "buf.WriteString(strconv.FormatUint(uint64(", expr, "), 10))")
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		f.P(indent, "buf.WriteString(protojson.QuoteString(strconv.FormatInt(", expr, ", 10)))")
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		f.P(indent, "buf.WriteString(protojson.QuoteString(strconv.FormatUint(", expr, ", 10)))")
	case descriptor.TypeFloat:
		f.P(indent, "buf.WriteString(protojson.FloatLiteral(float64(", expr, ")))")
	case descriptor.TypeDouble:
		f.P(indent, "buf.WriteString(protojson.FloatLiteral(", expr, "))")
	case descriptor.TypeString:
		f.P(indent, "buf.WriteString(protojson.QuoteString(", expr, "))")
	case descriptor.TypeBytes:
		f.P(indent, "buf.WriteString(protojson.QuoteString(base64.StdEncoding.EncodeToString(", expr, ")))")
	}
}

func jsonMarshalOneof(f *File, msgName, expr string, m *descriptor.MessageDescriptor, oneofIdx int) {
	o := m.Oneofs[oneofIdx]
	f.P("\tswitch v := ", expr, ".(type) {")
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("\tcase *", variant, ":")
		f.P("\t\twriteComma()")
		f.P("\t\tbuf.WriteString(", jsonNameLit(fld.JSONName), ")")
		jsonWriteValue(f, "v."+goFieldName(fld.Name), fld.Type, "\t\t")
	}
	f.P("\t}")
}

func jsonMarshalMap(f *File, expr string, mf *descriptor.MapDescriptor) {
	f.P("\tif ", expr, " != nil && ", expr, ".Len() > 0 {")
	f.P("\t\twriteComma()")
	f.P("\t\tbuf.WriteString(", jsonNameLit(mf.JSONName), ")")
	f.P("\t\tbuf.WriteByte('{')")
	f.P("\t\ti := 0")
	f.P("\t\tfor pair := ", expr, ".Oldest(); pair != nil; pair = pair.Next() {")
	f.P("\t\t\tif i > 0 {")
	f.P("\t\t\t\tbuf.WriteByte(',')")
	f.P("\t\t\t}")
	f.P("\t\t\ti++")
	f.P("\t\t\tbuf.WriteString(", jsonMapKeyExpr(mf, "pair.Key"), ")")
	f.P("\t\t\tbuf.WriteByte(':')")
	jsonWriteValue(f, "pair.Value", mf.ValueType, "\t\t\t")
	f.P("\t\t}")
	f.P("\t\tbuf.WriteByte('}')")
	f.P("\t}")
}

func jsonMapKeyExpr(mf *descriptor.MapDescriptor, keyExpr string) string {
	switch descriptor.FromScalar(mf.KeyType) {
	case descriptor.TypeString:
		return "protojson.QuoteString(" + keyExpr + ")"
	case descriptor.TypeBool:
		return "protojson.QuoteString(strconv.FormatBool(" + keyExpr + "))"
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		return "protojson.QuoteString(strconv.FormatInt(int64(" + keyExpr + "), 10))"
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		return "protojson.QuoteString(strconv.FormatUint(uint64(" + keyExpr + "), 10))"
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return "protojson.QuoteString(strconv.FormatInt(" + keyExpr + ", 10))"
	default:
		return "protojson.QuoteString(strconv.FormatUint(" + keyExpr + ", 10))"
	}
}

// jsonNameLit renders a Go string literal for the JSON `"name":` prefix a
// field's value is written after.
func jsonNameLit(name string) string {
	return strconv.Quote(`"` + name + `":`)
}

func genFromJSON(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("func (x *", name, ") FromJSON(data []byte) error {")
	f.P("\tvar raw map[string]json.RawMessage")
	f.P("\tif err := json.Unmarshal(data, &raw); err != nil {")
	f.P("\t\treturn err")
	f.P("\t}")
	f.P("\tlookup := func(names ...string) (json.RawMessage, bool) {")
	f.P("\t\tfor _, n := range names {")
	f.P("\t\t\tif v, ok := raw[n]; ok {")
	f.P("\t\t\t\treturn v, true")
	f.P("\t\t\t}")
	f.P("\t\t}")
	f.P("\t\treturn nil, false")
	f.P("\t}")

	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue
		}
		jsonUnmarshalField(f, "x."+goFieldName(fld.Name), fld)
	}
	for i, o := range m.Oneofs {
		jsonUnmarshalOneof(f, name, "x."+goFieldName(o.Name), m, i)
	}
	for _, mf := range m.Maps {
		jsonUnmarshalMap(f, "x."+goFieldName(mf.Name), mf)
	}

	f.P("\treturn nil")
	f.P("}")
	f.P()
}

func jsonUnmarshalField(f *File, expr string, fld *descriptor.FieldDescriptor) {
	f.P("\tif v, ok := lookup(", jsonLookupNames(fld.JSONName, fld.Name), "); ok {")
	switch {
	case fld.IsRepeated() && fld.Type == descriptor.TypeMessage:
		f.P("\t\tvar elems []json.RawMessage")
		f.P("\t\tif err := json.Unmarshal(v, &elems); err != nil {")
		f.P("\t\t\treturn err")
		f.P("\t\t}")
		f.P("\t\tfor _, e := range elems {")
		f.P("\t\t\tsub := &", goTypeRef(fld.TypeName), "{}")
		f.P("\t\t\tif err := sub.FromJSON(e); err != nil {")
		f.P("\t\t\t\treturn err")
		f.P("\t\t\t}")
		f.P("\t\t\t", expr, " = append(", expr, ", sub)")
		f.P("\t\t}")
	case fld.IsRepeated():
		f.P("\t\tvar elems []json.RawMessage")
		f.P("\t\tif err := json.Unmarshal(v, &elems); err != nil {")
		f.P("\t\t\treturn err")
		f.P("\t\t}")
		f.P("\t\tfor _, e := range elems {")
		jsonReadValue(f, expr+" = append("+expr+", %s)", fld.Type, "e", "\t\t\t")
		f.P("\t\t}")
	case fld.Type == descriptor.TypeMessage:
		f.P("\t\tsub := &", goTypeRef(fld.TypeName), "{}")
		f.P("\t\tif err := sub.FromJSON(v); err != nil {")
		f.P("\t\t\treturn err")
		f.P("\t\t}")
		f.P("\t\t", expr, " = sub")
	case fld.IsOptional():
		jsonReadValue(f, "tmp := %s\n\t\t"+expr+" = &tmp", fld.Type, "v", "\t\t")
	default:
		jsonReadValue(f, expr+" = %s", fld.Type, "v", "\t\t")
	}
	f.P("\t}")
}

// jsonReadValue emits the statements that parse src (a json.RawMessage
// expression) as a scalar of type t and apply it via assign, a format
// string with one %s hole for the parsed Go value.
func jsonReadValue(f *File, assign string, t descriptor.FieldType, src, indent string) {
	switch t {
	case descriptor.TypeBool:
		f.P(indent, "var pv bool")
		f.P(indent, "if err := json.Unmarshal(", src, ", &pv); err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32, descriptor.TypeEnum:
		f.P(indent, "pv, err := protojson.ParseIntLiteral(", src, ")")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "int32(pv)"))
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		f.P(indent, "pv, err := protojson.ParseUintLiteral(", src, ")")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "uint32(pv)"))
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		f.P(indent, "pv, err := protojson.ParseIntLiteral(", src, ")")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		f.P(indent, "pv, err := protojson.ParseUintLiteral(", src, ")")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	case descriptor.TypeFloat:
		f.P(indent, "pv, err := protojson.ParseFloatLiteral(string(", src, "))")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "float32(pv)"))
	case descriptor.TypeDouble:
		f.P(indent, "pv, err := protojson.ParseFloatLiteral(string(", src, "))")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	case descriptor.TypeString:
		f.P(indent, "var pv string")
		f.P(indent, "if err := json.Unmarshal(", src, ", &pv); err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	case descriptor.TypeBytes:
		f.P(indent, "var pvs string")
		f.P(indent, "if err := json.Unmarshal(", src, ", &pvs); err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, "pv, err := base64.StdEncoding.DecodeString(pvs)")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, fmt.Sprintf(assign, "pv"))
	}
}

func jsonUnmarshalOneof(f *File, msgName, expr string, m *descriptor.MessageDescriptor, oneofIdx int) {
	o := m.Oneofs[oneofIdx]
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("\tif v, ok := lookup(", jsonLookupNames(fld.JSONName, fld.Name), "); ok {")
		if fld.Type == descriptor.TypeMessage {
			f.P("\t\tsub := &", goTypeRef(fld.TypeName), "{}")
			f.P("\t\tif err := sub.FromJSON(v); err != nil {")
			f.P("\t\t\treturn err")
			f.P("\t\t}")
			f.P("\t\t", expr, " = &", variant, "{", goFieldName(fld.Name), ": sub}")
		} else {
			jsonReadValue(f, expr+" = &"+variant+"{"+goFieldName(fld.Name)+": %s}", fld.Type, "v", "\t\t")
		}
		f.P("\t}")
	}
}

func jsonUnmarshalMap(f *File, expr string, mf *descriptor.MapDescriptor) {
	f.P("\tif v, ok := lookup(", jsonLookupNames(mf.JSONName, mf.Name), "); ok {")
	f.P("\t\tvar rawMap map[string]json.RawMessage")
	f.P("\t\tif err := json.Unmarshal(v, &rawMap); err != nil {")
	f.P("\t\t\treturn err")
	f.P("\t\t}")
	f.P("\t\tif ", expr, " == nil {")
	f.P("\t\t\t", expr, " = orderedmap.New[", mapKeyGoType(mf.KeyType), ", ", mapValueGoType(f, mf), "]()")
	f.P("\t\t}")
	f.P("\t\tfor k, mv := range rawMap {")
	jsonMapKeyParseStmt(f, mf, "k", "\t\t\t")
	if mf.ValueType == descriptor.TypeMessage {
		f.P("\t\t\tsub := &", goTypeRef(mf.ValueTypeName), "{}")
		f.P("\t\t\tif err := sub.FromJSON(mv); err != nil {")
		f.P("\t\t\t\treturn err")
		f.P("\t\t\t}")
		f.P("\t\t\t", expr, ".Set(key, sub)")
	} else {
		jsonReadValue(f, expr+".Set(key, %s)", mf.ValueType, "mv", "\t\t\t")
	}
	f.P("\t\t}")
	f.P("\t}")
}

// jsonMapKeyParseStmt emits statements that produce a `key` variable parsed
// from the bare JSON-object-key string keyVar, per the declared map key type.
func jsonMapKeyParseStmt(f *File, mf *descriptor.MapDescriptor, keyVar, indent string) {
	switch descriptor.FromScalar(mf.KeyType) {
	case descriptor.TypeString:
		f.P(indent, "key := ", keyVar)
	case descriptor.TypeBool:
		f.P(indent, "key, err := strconv.ParseBool(", keyVar, ")")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		f.P(indent, "kn, err := strconv.ParseInt(", keyVar, ", 10, 32)")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, "key := int32(kn)")
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		f.P(indent, "kn, err := strconv.ParseUint(", keyVar, ", 10, 32)")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
		f.P(indent, "key := uint32(kn)")
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		f.P(indent, "key, err := strconv.ParseInt(", keyVar, ", 10, 64)")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
	default:
		f.P(indent, "key, err := strconv.ParseUint(", keyVar, ", 10, 64)")
		f.P(indent, "if err != nil {")
		f.P(indent, "\treturn err")
		f.P(indent, "}")
	}
}

func jsonLookupNames(jsonName, name string) string {
	if jsonName == "" || jsonName == name {
		return strconv.Quote(name)
	}
	return strconv.Quote(jsonName) + ", " + strconv.Quote(name)
}
