// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"fmt"

	"github.com/mattnite/protoc-zero/descriptor"
)

// genCodec emits CalcSize, Encode, and Decode for message m, each built as a
// straight-line walk over its fields in declaration order: CalcSize and
// Encode must visit fields identically, since len(Encode(v)) == CalcSize(v)
// is a tested invariant of every generated message.
func genCodec(f *File, name string, m *descriptor.MessageDescriptor) {
	genCalcSize(f, name, m)
	genEncode(f, name, m)
	genDecode(f, name, m)
	genDeinit(f, name, m)
}

func genCalcSize(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("func (x *", name, ") CalcSize() int {")
	f.P("\tif x == nil {")
	f.P("\t\treturn 0")
	f.P("\t}")
	f.P("\tn := 0")
	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue
		}
		calcSizeField(f, "x."+goFieldName(fld.Name), fld)
	}
	for i, o := range m.Oneofs {
		calcSizeOneof(f, name, "x."+goFieldName(o.Name), m, i)
	}
	for _, mf := range m.Maps {
		calcSizeMap(f, "x."+goFieldName(mf.Name), mf)
	}
	f.P("\tn += len(x.Unknown)")
	f.P("\treturn n")
	f.P("}")
	f.P()
}

func calcSizeField(f *File, expr string, fld *descriptor.FieldDescriptor) {
	num := fld.Number
	if fld.IsRepeated() {
		switch fld.Type {
		case descriptor.TypeMessage:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tn += wire.SizeTag(", num, ") + wire.SizeBytes(e.CalcSize())")
			f.P("\t}")
		case descriptor.TypeString:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tn += wire.SizeLenField(", num, ", len(e))")
			f.P("\t}")
		case descriptor.TypeBytes:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tn += wire.SizeLenField(", num, ", len(e))")
			f.P("\t}")
		default:
			if fld.Packed {
				f.P("\tif len(", expr, ") > 0 {")
				f.P("\t\tpn := 0")
				f.P("\t\tfor _, e := range ", expr, " {")
				f.P("\t\t\tpn += ", varintSizeExpr(fld, "e"))
				f.P("\t\t}")
				f.P("\t\tn += wire.SizeLenField(", num, ", pn)")
				f.P("\t}")
			} else {
				f.P("\tfor _, e := range ", expr, " {")
				f.P("\t\tn += wire.SizeTag(", num, ") + ", varintSizeExpr(fld, "e"))
				f.P("\t}")
			}
		}
		return
	}

	switch fld.Type {
	case descriptor.TypeMessage:
		f.P("\tif ", expr, " != nil {")
		f.P("\t\tn += wire.SizeTag(", num, ") + wire.SizeBytes(", expr, ".CalcSize())")
		f.P("\t}")
	case descriptor.TypeString:
		f.P("\tif len(", expr, ") > 0 {")
		f.P("\t\tn += wire.SizeLenField(", num, ", len(", expr, "))")
		f.P("\t}")
	case descriptor.TypeBytes:
		f.P("\tif len(", expr, ") > 0 {")
		f.P("\t\tn += wire.SizeLenField(", num, ", len(", expr, "))")
		f.P("\t}")
	default:
		switch {
		case fld.IsRequired():
			f.P("\tn += wire.SizeTag(", num, ") + ", varintSizeExpr(fld, expr))
		case fld.IsOptional():
			f.P("\tif ", expr, " != nil {")
			f.P("\t\tn += wire.SizeTag(", num, ") + ", varintSizeExpr(fld, "*"+expr))
			f.P("\t}")
		default:
			f.P("\tif ", expr, " != 0 {")
			f.P("\t\tn += wire.SizeTag(", num, ") + ", varintSizeExpr(fld, expr))
			f.P("\t}")
		}
	}
}

// varintSizeExpr returns the expression computing the wire size of a single
// scalar value v of fld's type, excluding its tag.
func varintSizeExpr(fld *descriptor.FieldDescriptor, v string) string {
	switch fld.Type {
	case descriptor.TypeFixed32, descriptor.TypeSfixed32, descriptor.TypeFloat:
		return "4"
	case descriptor.TypeFixed64, descriptor.TypeSfixed64, descriptor.TypeDouble:
		return "8"
	case descriptor.TypeSint32:
		return fmt.Sprintf("wire.SizeVarint(uint64(wire.EncodeZigZag32(%s)))", v)
	case descriptor.TypeSint64:
		return fmt.Sprintf("wire.SizeVarint(wire.EncodeZigZag64(%s))", v)
	case descriptor.TypeBool:
		return "1"
	case descriptor.TypeEnum:
		return fmt.Sprintf("wire.SizeVarint(uint64(int32(%s)))", v)
	default:
		return fmt.Sprintf("wire.SizeVarint(uint64(%s))", v)
	}
}

func calcSizeOneof(f *File, msgName, expr string, m *descriptor.MessageDescriptor, oneofIdx int) {
	o := m.Oneofs[oneofIdx]
	f.P("\tswitch v := ", expr, ".(type) {")
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("\tcase *", variant, ":")
		calcSizeField(f, "v."+goFieldName(fld.Name), fld)
	}
	f.P("\t}")
}

func calcSizeMap(f *File, expr string, mf *descriptor.MapDescriptor) {
	f.P("\tif ", expr, " != nil {")
	f.P("\t\tfor pair := ", expr, ".Oldest(); pair != nil; pair = pair.Next() {")
	f.P("\t\t\tesz := ", mapEntrySizeExpr(mf, "pair.Key", "pair.Value"))
	f.P("\t\t\tn += wire.SizeTag(", mf.Number, ") + wire.SizeBytes(esz)")
	f.P("\t\t}")
	f.P("\t}")
}

func mapEntrySizeExpr(mf *descriptor.MapDescriptor, key, value string) string {
	keyFld := &descriptor.FieldDescriptor{Number: 1, Type: descriptor.FromScalar(mf.KeyType)}
	valFld := &descriptor.FieldDescriptor{Number: 2, Type: mf.ValueType}
	keySize := "wire.SizeTag(1) + " + varintOrLenSizeExpr(keyFld, key)
	valSize := "wire.SizeTag(2) + " + varintOrLenSizeExpr(valFld, value)
	return "(" + keySize + ") + (" + valSize + ")"
}

func varintOrLenSizeExpr(fld *descriptor.FieldDescriptor, v string) string {
	switch fld.Type {
	case descriptor.TypeString, descriptor.TypeBytes:
		return fmt.Sprintf("wire.SizeBytes(len(%s))", v)
	case descriptor.TypeMessage:
		return fmt.Sprintf("wire.SizeBytes(%s.CalcSize())", v)
	default:
		return varintSizeExpr(fld, v)
	}
}

func genEncode(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("func (x *", name, ") Encode(buf []byte) []byte {")
	f.P("\tif x == nil {")
	f.P("\t\treturn buf")
	f.P("\t}")
	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue
		}
		encodeField(f, "x."+goFieldName(fld.Name), fld)
	}
	for i, o := range m.Oneofs {
		encodeOneof(f, name, "x."+goFieldName(o.Name), m, i)
	}
	for _, mf := range m.Maps {
		encodeMap(f, "x."+goFieldName(mf.Name), mf)
	}
	f.P("\tbuf = append(buf, x.Unknown...)")
	f.P("\treturn buf")
	f.P("}")
	f.P()
}

func encodeField(f *File, expr string, fld *descriptor.FieldDescriptor) {
	num := fld.Number
	if fld.IsRepeated() {
		switch fld.Type {
		case descriptor.TypeMessage:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tbuf = wire.AppendTag(buf, ", num, ", wire.BytesType)")
			f.P("\t\tbuf = wire.AppendVarint(buf, uint64(e.CalcSize()))")
			f.P("\t\tbuf = e.Encode(buf)")
			f.P("\t}")
		case descriptor.TypeString:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tbuf = wire.AppendLenField(buf, ", num, ", []byte(e))")
			f.P("\t}")
		case descriptor.TypeBytes:
			f.P("\tfor _, e := range ", expr, " {")
			f.P("\t\tbuf = wire.AppendLenField(buf, ", num, ", e)")
			f.P("\t}")
		default:
			if fld.Packed {
				f.P("\tif len(", expr, ") > 0 {")
				f.P("\t\tpn := 0")
				f.P("\t\tfor _, e := range ", expr, " {")
				f.P("\t\t\tpn += ", varintSizeExpr(fld, "e"))
				f.P("\t\t}")
				f.P("\t\tbuf = wire.AppendTag(buf, ", num, ", wire.BytesType)")
				f.P("\t\tbuf = wire.AppendVarint(buf, uint64(pn))")
				f.P("\t\tfor _, e := range ", expr, " {")
				f.P("\t\t\t", appendScalarStmt(fld, "e", false))
				f.P("\t\t}")
				f.P("\t}")
			} else {
				f.P("\tfor _, e := range ", expr, " {")
				f.P("\t\t", appendScalarStmt(fld, "e", true))
				f.P("\t}")
			}
		}
		return
	}

	switch fld.Type {
	case descriptor.TypeMessage:
		f.P("\tif ", expr, " != nil {")
		f.P("\t\tbuf = wire.AppendTag(buf, ", num, ", wire.BytesType)")
		f.P("\t\tbuf = wire.AppendVarint(buf, uint64(", expr, ".CalcSize()))")
		f.P("\t\tbuf = ", expr, ".Encode(buf)")
		f.P("\t}")
	case descriptor.TypeString:
		f.P("\tif len(", expr, ") > 0 {")
		f.P("\t\tbuf = wire.AppendLenField(buf, ", num, ", []byte(", expr, "))")
		f.P("\t}")
	case descriptor.TypeBytes:
		f.P("\tif len(", expr, ") > 0 {")
		f.P("\t\tbuf = wire.AppendLenField(buf, ", num, ", ", expr, ")")
		f.P("\t}")
	default:
		switch {
		case fld.IsRequired():
			f.P("\t", appendScalarStmt(fld, expr, true))
		case fld.IsOptional():
			f.P("\tif ", expr, " != nil {")
			f.P("\t\t", appendScalarStmt(fld, "*"+expr, true))
			f.P("\t}")
		default:
			f.P("\tif ", expr, " != 0 {")
			f.P("\t\t", appendScalarStmt(fld, expr, true))
			f.P("\t}")
		}
	}
}

// appendScalarStmt returns the statement appending one scalar value v,
// including its own tag when withTag is true (packed repeated fields append
// just the bare values after one shared tag+length prefix).
func appendScalarStmt(fld *descriptor.FieldDescriptor, v string, withTag bool) string {
	num := fld.Number
	switch fld.Type {
	case descriptor.TypeFixed32, descriptor.TypeSfixed32:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendFixed32Field(buf, %d, uint32(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendFixed32(buf, uint32(%s))", v)
	case descriptor.TypeFloat:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendFixed32Field(buf, %d, wire.EncodeFloat(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendFixed32(buf, wire.EncodeFloat(%s))", v)
	case descriptor.TypeFixed64, descriptor.TypeSfixed64:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendFixed64Field(buf, %d, uint64(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendFixed64(buf, uint64(%s))", v)
	case descriptor.TypeDouble:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendFixed64Field(buf, %d, wire.EncodeDouble(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendFixed64(buf, wire.EncodeDouble(%s))", v)
	case descriptor.TypeSint32:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendVarintField(buf, %d, uint64(wire.EncodeZigZag32(%s)))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendVarint(buf, uint64(wire.EncodeZigZag32(%s)))", v)
	case descriptor.TypeSint64:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendVarintField(buf, %d, wire.EncodeZigZag64(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendVarint(buf, wire.EncodeZigZag64(%s))", v)
	case descriptor.TypeBool:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendVarintField(buf, %d, wire.BoolToUint64(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendVarint(buf, wire.BoolToUint64(%s))", v)
	case descriptor.TypeEnum:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendVarintField(buf, %d, uint64(int32(%s)))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendVarint(buf, uint64(int32(%s)))", v)
	default:
		if withTag {
			return fmt.Sprintf("buf = wire.AppendVarintField(buf, %d, uint64(%s))", num, v)
		}
		return fmt.Sprintf("buf = wire.AppendVarint(buf, uint64(%s))", v)
	}
}

func encodeOneof(f *File, msgName, expr string, m *descriptor.MessageDescriptor, oneofIdx int) {
	o := m.Oneofs[oneofIdx]
	f.P("\tswitch v := ", expr, ".(type) {")
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("\tcase *", variant, ":")
		encodeField(f, "v."+goFieldName(fld.Name), fld)
	}
	f.P("\t}")
}

func encodeMap(f *File, expr string, mf *descriptor.MapDescriptor) {
	keyFld := &descriptor.FieldDescriptor{Number: 1, Type: descriptor.FromScalar(mf.KeyType)}
	valFld := &descriptor.FieldDescriptor{Number: 2, Type: mf.ValueType}
	f.P("\tif ", expr, " != nil {")
	f.P("\t\tfor pair := ", expr, ".Oldest(); pair != nil; pair = pair.Next() {")
	f.P("\t\t\tentrySize := ", mapEntrySizeExpr(mf, "pair.Key", "pair.Value"))
	f.P("\t\t\tbuf = wire.AppendTag(buf, ", mf.Number, ", wire.BytesType)")
	f.P("\t\t\tbuf = wire.AppendVarint(buf, uint64(entrySize))")
	encodeMapEntryField(f, keyFld, "pair.Key")
	encodeMapEntryField(f, valFld, "pair.Value")
	f.P("\t\t}")
	f.P("\t}")
}

func encodeMapEntryField(f *File, fld *descriptor.FieldDescriptor, v string) {
	switch fld.Type {
	case descriptor.TypeString:
		f.P("\t\t\tbuf = wire.AppendLenField(buf, ", fld.Number, ", []byte(", v, "))")
	case descriptor.TypeBytes:
		f.P("\t\t\tbuf = wire.AppendLenField(buf, ", fld.Number, ", ", v, ")")
	case descriptor.TypeMessage:
		f.P("\t\t\tbuf = wire.AppendTag(buf, ", fld.Number, ", wire.BytesType)")
		f.P("\t\t\tbuf = wire.AppendVarint(buf, uint64(", v, ".CalcSize()))")
		f.P("\t\t\tbuf = ", v, ".Encode(buf)")
	default:
		f.P("\t\t\t", appendScalarStmt(fld, v, true))
	}
}

// genDecode emits a manual tag-loop decoder rather than building on
// wire.FieldIterator: the iterator already discards a field's raw bytes once
// it decodes them, but Decode must still be able to append an unrecognized
// field's untouched tag+value bytes to Unknown, so it needs the raw [start,
// end) span wire.SkipField computes, not just the decoded value.
func genDecode(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("func (x *", name, ") Decode(buf []byte) error {")
	f.P("\tpos := 0")
	f.P("\tfor pos < len(buf) {")
	f.P("\t\ttagStart := pos")
	f.P("\t\ttagv, n, err := wire.ConsumeVarint(buf[pos:])")
	f.P("\t\tif err != nil {")
	f.P("\t\t\treturn err")
	f.P("\t\t}")
	f.P("\t\tpos += n")
	f.P("\t\tnum, typ := wire.DecodeTag(tagv)")
	f.P("\t\tif num == 0 {")
	f.P("\t\t\treturn wire.ErrInvalidFieldNumber")
	f.P("\t\t}")
	f.P("\t\tswitch num {")

	for _, fld := range m.Fields {
		if fld.OneofIndex >= 0 {
			continue
		}
		f.P("\t\tcase ", fld.Number, ":")
		decodeField(f, "x."+goFieldName(fld.Name), fld)
	}
	for i, o := range m.Oneofs {
		decodeOneof(f, name, "x."+goFieldName(o.Name), m, i)
	}
	for _, mf := range m.Maps {
		f.P("\t\tcase ", mf.Number, ":")
		decodeMap(f, "x."+goFieldName(mf.Name), mf)
	}

	f.P("\t\tdefault:")
	f.P("\t\t\tend, err := wire.SkipField(buf, pos, num, typ)")
	f.P("\t\t\tif err != nil {")
	f.P("\t\t\t\treturn err")
	f.P("\t\t\t}")
	f.P("\t\t\tx.Unknown = append(x.Unknown, buf[tagStart:end]...)")
	f.P("\t\t\tpos = end")
	f.P("\t\t}")
	f.P("\t}")
	f.P("\treturn nil")
	f.P("}")
	f.P()
}

// decodeField emits the body of one known-field case, consuming one value
// starting at buf[pos:] and advancing pos past it. Repeated scalar fields
// accept either packed (typ == BytesType) or unpacked wire encoding, since a
// sender's choice of packing is not observable by the receiver ahead of time.
func decodeField(f *File, expr string, fld *descriptor.FieldDescriptor) {
	switch fld.Type {
	case descriptor.TypeMessage:
		f.P("\t\t\tl, ln, err := wire.ConsumeVarint(buf[pos:])")
		f.P("\t\t\tif err != nil {")
		f.P("\t\t\t\treturn err")
		f.P("\t\t\t}")
		f.P("\t\t\tpos += ln")
		f.P("\t\t\tif uint64(len(buf)-pos) < l {")
		f.P("\t\t\t\treturn wire.ErrEndOfStream")
		f.P("\t\t\t}")
		f.P("\t\t\tsub := buf[pos : pos+int(l)]")
		f.P("\t\t\tpos += int(l)")
		f.P("\t\t\tm := new(", goTypeRef(fld.TypeName), ")")
		f.P("\t\t\tif err := m.Decode(sub); err != nil {")
		f.P("\t\t\t\treturn err")
		f.P("\t\t\t}")
		if fld.IsRepeated() {
			f.P("\t\t\t", expr, " = append(", expr, ", m)")
		} else {
			f.P("\t\t\t", expr, " = m")
		}
	case descriptor.TypeString, descriptor.TypeBytes:
		f.P("\t\t\tl, ln, err := wire.ConsumeVarint(buf[pos:])")
		f.P("\t\t\tif err != nil {")
		f.P("\t\t\t\treturn err")
		f.P("\t\t\t}")
		f.P("\t\t\tpos += ln")
		f.P("\t\t\tif uint64(len(buf)-pos) < l {")
		f.P("\t\t\t\treturn wire.ErrEndOfStream")
		f.P("\t\t\t}")
		f.P("\t\t\tdata := buf[pos : pos+int(l)]")
		f.P("\t\t\tpos += int(l)")
		conv := "string(data)"
		if fld.Type == descriptor.TypeBytes {
			conv = "append([]byte(nil), data...)"
		}
		if fld.IsRepeated() {
			f.P("\t\t\t", expr, " = append(", expr, ", ", conv, ")")
		} else {
			f.P("\t\t\t", expr, " = ", conv)
		}
	default:
		if fld.IsRepeated() {
			f.P("\t\t\tif typ == wire.BytesType {")
			f.P("\t\t\t\tl, ln, err := wire.ConsumeVarint(buf[pos:])")
			f.P("\t\t\t\tif err != nil {")
			f.P("\t\t\t\t\treturn err")
			f.P("\t\t\t\t}")
			f.P("\t\t\t\tpos += ln")
			f.P("\t\t\t\tif uint64(len(buf)-pos) < l {")
			f.P("\t\t\t\t\treturn wire.ErrEndOfStream")
			f.P("\t\t\t\t}")
			f.P("\t\t\t\tpend := pos + int(l)")
			f.P("\t\t\t\tfor pos < pend {")
			f.P("\t\t\t\t\t", scalarConsumeStmt(fld, expr, true))
			f.P("\t\t\t\t}")
			f.P("\t\t\t} else {")
			f.P("\t\t\t\t", scalarConsumeStmt(fld, expr, true))
			f.P("\t\t\t}")
		} else if fld.IsOptional() {
			f.P("\t\t\t", scalarConsumeStmtPtr(fld, expr))
		} else {
			f.P("\t\t\t", scalarConsumeStmt(fld, expr, false))
		}
	}
}

// scalarConsumeStmt consumes one scalar value of fld's type from buf[pos:],
// advances pos, and stores the decoded value into expr (appending if
// repeated, assigning otherwise).
func scalarConsumeStmt(fld *descriptor.FieldDescriptor, expr string, repeated bool) string {
	var read, conv string
	switch fld.Type {
	case descriptor.TypeFixed32, descriptor.TypeSfixed32:
		read = "v, n, err := wire.ConsumeFixed32(buf[pos:])"
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	case descriptor.TypeFloat:
		read = "v, n, err := wire.ConsumeFixed32(buf[pos:])"
		conv = "wire.DecodeFloat(v)"
	case descriptor.TypeFixed64, descriptor.TypeSfixed64:
		read = "v, n, err := wire.ConsumeFixed64(buf[pos:])"
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	case descriptor.TypeDouble:
		read = "v, n, err := wire.ConsumeFixed64(buf[pos:])"
		conv = "wire.DecodeDouble(v)"
	case descriptor.TypeSint32:
		read = "v, n, err := wire.ConsumeVarint(buf[pos:])"
		conv = "wire.DecodeZigZag32(uint32(v))"
	case descriptor.TypeSint64:
		read = "v, n, err := wire.ConsumeVarint(buf[pos:])"
		conv = "wire.DecodeZigZag64(v)"
	case descriptor.TypeBool:
		read = "v, n, err := wire.ConsumeVarint(buf[pos:])"
		conv = "v != 0"
	case descriptor.TypeEnum:
		read = "v, n, err := wire.ConsumeVarint(buf[pos:])"
		conv = fmt.Sprintf("%s(int32(v))", goTypeRef(fld.TypeName))
	default:
		read = "v, n, err := wire.ConsumeVarint(buf[pos:])"
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	}
	assign := fmt.Sprintf("%s = %s", expr, conv)
	if repeated {
		assign = fmt.Sprintf("%s = append(%s, %s)", expr, expr, conv)
	}
	return fmt.Sprintf("%s\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tpos += n\n\t\t\t%s", read, assign)
}

// scalarConsumeStmtPtr is scalarConsumeStmt for a non-repeated `optional`
// field: expr is *T, so the decoded value is stashed in a fresh variable and
// expr is pointed at it, rather than assigned directly.
func scalarConsumeStmtPtr(fld *descriptor.FieldDescriptor, expr string) string {
	stmt := scalarConsumeStmt(fld, "pv", false)
	typ := scalarGoType(fld.Type)
	if fld.Type == descriptor.TypeEnum {
		typ = goTypeRef(fld.TypeName)
	}
	return fmt.Sprintf("var pv %s\n\t\t\t%s\n\t\t\t%s = &pv", typ, stmt, expr)
}

func decodeOneof(f *File, msgName, expr string, m *descriptor.MessageDescriptor, oneofIdx int) {
	o := m.Oneofs[oneofIdx]
	for _, idx := range o.FieldIndices {
		fld := m.Fields[idx]
		variant := msgName + "_" + goFieldName(fld.Name)
		f.P("\t\tcase ", fld.Number, ":")
		f.P("\t\t\tvv := new(", variant, ")")
		decodeField(f, "vv."+goFieldName(fld.Name), fld)
		f.P("\t\t\t", expr, " = vv")
	}
}

func decodeMap(f *File, expr string, mf *descriptor.MapDescriptor) {
	keyFld := &descriptor.FieldDescriptor{Number: 1, Type: descriptor.FromScalar(mf.KeyType)}
	valFld := &descriptor.FieldDescriptor{Number: 2, Type: mf.ValueType, TypeName: mf.ValueTypeName}
	f.P("\t\t\tl, ln, err := wire.ConsumeVarint(buf[pos:])")
	f.P("\t\t\tif err != nil {")
	f.P("\t\t\t\treturn err")
	f.P("\t\t\t}")
	f.P("\t\t\tpos += ln")
	f.P("\t\t\tif uint64(len(buf)-pos) < l {")
	f.P("\t\t\t\treturn wire.ErrEndOfStream")
	f.P("\t\t\t}")
	f.P("\t\t\tentry := buf[pos : pos+int(l)]")
	f.P("\t\t\tpos += int(l)")
	f.P("\t\t\tvar key ", mapKeyGoType(mf.KeyType))
	f.P("\t\t\tvar val ", mapValueGoTypeByDescriptor(mf))
	f.P("\t\t\tepos := 0")
	f.P("\t\t\tfor epos < len(entry) {")
	f.P("\t\t\t\tetagv, en, err := wire.ConsumeVarint(entry[epos:])")
	f.P("\t\t\t\tif err != nil {")
	f.P("\t\t\t\t\treturn err")
	f.P("\t\t\t\t}")
	f.P("\t\t\t\tepos += en")
	f.P("\t\t\t\tenum, etyp := wire.DecodeTag(etagv)")
	f.P("\t\t\t\t_ = etyp")
	f.P("\t\t\t\tswitch enum {")
	f.P("\t\t\t\tcase 1:")
	decodeMapEntryField(f, keyFld, "key")
	f.P("\t\t\t\tcase 2:")
	decodeMapEntryField(f, valFld, "val")
	f.P("\t\t\t\tdefault:")
	f.P("\t\t\t\t\tend, err := wire.SkipField(entry, epos, enum, etyp)")
	f.P("\t\t\t\t\tif err != nil {")
	f.P("\t\t\t\t\t\treturn err")
	f.P("\t\t\t\t\t}")
	f.P("\t\t\t\t\tepos = end")
	f.P("\t\t\t\t}")
	f.P("\t\t\t}")
	f.P("\t\t\tif ", expr, " == nil {")
	f.P("\t\t\t\t", expr, " = orderedmap.New[", mapKeyGoType(mf.KeyType), ", ", mapValueGoTypeByDescriptor(mf), "]()")
	f.P("\t\t\t}")
	f.P("\t\t\t", expr, ".Set(key, val)")
}

func mapValueGoTypeByDescriptor(mf *descriptor.MapDescriptor) string {
	switch mf.ValueType {
	case descriptor.TypeMessage:
		return "*" + goTypeRef(mf.ValueTypeName)
	case descriptor.TypeEnum:
		return goTypeRef(mf.ValueTypeName)
	default:
		return scalarGoType(mf.ValueType)
	}
}

// decodeMapEntryField mirrors decodeField's singular (non-repeated) cases,
// but reads from entry/epos (a map entry submessage's own byte span and
// cursor) instead of buf/pos, and uses pos/buf/epos-relative bounds.
func decodeMapEntryField(f *File, fld *descriptor.FieldDescriptor, expr string) {
	switch fld.Type {
	case descriptor.TypeMessage:
		f.P("\t\t\t\t\tl2, n2, err := wire.ConsumeVarint(entry[epos:])")
		f.P("\t\t\t\t\tif err != nil {")
		f.P("\t\t\t\t\t\treturn err")
		f.P("\t\t\t\t\t}")
		f.P("\t\t\t\t\tepos += n2")
		f.P("\t\t\t\t\tsub := entry[epos : epos+int(l2)]")
		f.P("\t\t\t\t\tepos += int(l2)")
		f.P("\t\t\t\t\t", expr, " = new(", goTypeRef(fld.TypeName), ")")
		f.P("\t\t\t\t\tif err := ", expr, ".Decode(sub); err != nil {")
		f.P("\t\t\t\t\t\treturn err")
		f.P("\t\t\t\t\t}")
	case descriptor.TypeString, descriptor.TypeBytes:
		f.P("\t\t\t\t\tl2, n2, err := wire.ConsumeVarint(entry[epos:])")
		f.P("\t\t\t\t\tif err != nil {")
		f.P("\t\t\t\t\t\treturn err")
		f.P("\t\t\t\t\t}")
		f.P("\t\t\t\t\tepos += n2")
		f.P("\t\t\t\t\tdata := entry[epos : epos+int(l2)]")
		f.P("\t\t\t\t\tepos += int(l2)")
		if fld.Type == descriptor.TypeBytes {
			f.P("\t\t\t\t\t", expr, " = append([]byte(nil), data...)")
		} else {
			f.P("\t\t\t\t\t", expr, " = string(data)")
		}
	default:
		stmt := scalarConsumeStmtAt(fld, expr, "entry", "epos")
		f.P(stmt)
	}
}

// scalarConsumeStmtAt is scalarConsumeStmt generalized over the buffer/cursor
// variable names, since map entry decoding walks a separate `entry`/`epos`
// span rather than the message-level `buf`/`pos`.
func scalarConsumeStmtAt(fld *descriptor.FieldDescriptor, expr, bufVar, posVar string) string {
	var read, conv string
	switch fld.Type {
	case descriptor.TypeFixed32, descriptor.TypeSfixed32:
		read = fmt.Sprintf("v, n, err := wire.ConsumeFixed32(%s[%s:])", bufVar, posVar)
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	case descriptor.TypeFloat:
		read = fmt.Sprintf("v, n, err := wire.ConsumeFixed32(%s[%s:])", bufVar, posVar)
		conv = "wire.DecodeFloat(v)"
	case descriptor.TypeFixed64, descriptor.TypeSfixed64:
		read = fmt.Sprintf("v, n, err := wire.ConsumeFixed64(%s[%s:])", bufVar, posVar)
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	case descriptor.TypeDouble:
		read = fmt.Sprintf("v, n, err := wire.ConsumeFixed64(%s[%s:])", bufVar, posVar)
		conv = "wire.DecodeDouble(v)"
	case descriptor.TypeSint32:
		read = fmt.Sprintf("v, n, err := wire.ConsumeVarint(%s[%s:])", bufVar, posVar)
		conv = "wire.DecodeZigZag32(uint32(v))"
	case descriptor.TypeSint64:
		read = fmt.Sprintf("v, n, err := wire.ConsumeVarint(%s[%s:])", bufVar, posVar)
		conv = "wire.DecodeZigZag64(v)"
	case descriptor.TypeBool:
		read = fmt.Sprintf("v, n, err := wire.ConsumeVarint(%s[%s:])", bufVar, posVar)
		conv = "v != 0"
	case descriptor.TypeEnum:
		read = fmt.Sprintf("v, n, err := wire.ConsumeVarint(%s[%s:])", bufVar, posVar)
		conv = fmt.Sprintf("%s(int32(v))", goTypeRef(fld.TypeName))
	default:
		read = fmt.Sprintf("v, n, err := wire.ConsumeVarint(%s[%s:])", bufVar, posVar)
		conv = fmt.Sprintf("%s(v)", scalarGoType(fld.Type))
	}
	return fmt.Sprintf("\t\t\t\t\t%s\n\t\t\t\t\tif err != nil {\n\t\t\t\t\t\treturn err\n\t\t\t\t\t}\n\t\t\t\t\t%s += n\n\t\t\t\t\t%s = %s", read, posVar, expr, conv)
}

func genDeinit(f *File, name string, m *descriptor.MessageDescriptor) {
	f.P("// Deinit resets every field of x, Unknown included, to its zero")
	f.P("// value, for callers pooling ", name, " instances.")
	f.P("func (x *", name, ") Deinit() {")
	f.P("\tif x == nil {")
	f.P("\t\treturn")
	f.P("\t}")
	f.P("\t*x = ", name, "{}")
	f.P("}")
	f.P()
}
