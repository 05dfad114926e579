// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dynamicpb

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/wire"
)

// Decode parses buf as a message of the type desc describes. A field whose
// wire type is incompatible with its declared type, or whose number names
// no field or map on desc at all, is preserved verbatim (re-synthesized
// from its decoded value, tag included) in the resulting Message's
// Unknown() trailer rather than rejected outright.
func Decode(desc *descriptor.MessageDescriptor, files *descriptor.Files, buf []byte) (*Message, error) {
	m := New(desc, files)
	if err := m.decodeInto(buf); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) decodeInto(buf []byte) error {
	it := wire.NewFieldIterator(buf)
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		if err := m.decodeOneField(f); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("dynamicpb: decoding %s: %w", m.desc.FQN, err)
	}
	return nil
}

func (m *Message) decodeOneField(f wire.Field) error {
	num := int32(f.Number)

	if fd := m.desc.FieldByNumber(num); fd != nil {
		if fd.IsRepeated() {
			return m.decodeRepeatedField(fd, f)
		}
		return m.decodeSingularField(fd, f)
	}
	if mf := m.desc.MapByNumber(num); mf != nil {
		return m.decodeMapEntry(mf, f)
	}
	m.appendUnknown(f)
	return nil
}

func (m *Message) decodeSingularField(fd *descriptor.FieldDescriptor, f wire.Field) error {
	if fd.Type == descriptor.TypeMessage {
		if f.Value.Type != wire.BytesType {
			m.appendUnknown(f)
			return nil
		}
		sub, err := m.newMessageFor(fd.TypeName)
		if err != nil {
			return err
		}
		if err := sub.decodeInto(f.Value.Bytes()); err != nil {
			return err
		}
		m.clearOneofSiblings(fd)
		m.cells[fd.Number] = &cell{kind: cellMessageKind, msg: sub}
		return nil
	}
	if !compatibleWireType(fd.Type, f.Value.Type) {
		m.appendUnknown(f)
		return nil
	}
	m.clearOneofSiblings(fd)
	m.cells[fd.Number] = &cell{kind: cellScalar, scalar: decodeScalarValue(fd.Type, f.Value)}
	return nil
}

func (m *Message) decodeRepeatedField(fd *descriptor.FieldDescriptor, f wire.Field) error {
	if fd.Type == descriptor.TypeMessage {
		if f.Value.Type != wire.BytesType {
			m.appendUnknown(f)
			return nil
		}
		sub, err := m.newMessageFor(fd.TypeName)
		if err != nil {
			return err
		}
		if err := sub.decodeInto(f.Value.Bytes()); err != nil {
			return err
		}
		c := m.cellFor(fd.Number)
		if c == nil {
			c = &cell{kind: cellMessageRepeated}
			m.cells[fd.Number] = c
		}
		c.repeatedMsg = append(c.repeatedMsg, sub)
		return nil
	}

	// A repeated scalar field accepts either its packed form (one
	// BytesType run of concatenated bare values) or an unpacked sequence
	// of individually tagged values — the sender's choice is not
	// observable ahead of time, so both are tolerated on decode.
	c := m.cellFor(fd.Number)
	if c == nil {
		c = &cell{kind: cellScalarRepeated}
		m.cells[fd.Number] = c
	}
	if f.Value.Type == wire.BytesType && fd.Type != descriptor.TypeString && fd.Type != descriptor.TypeBytes {
		vals, err := unpackScalars(fd.Type, f.Value.Bytes())
		if err != nil {
			return fmt.Errorf("dynamicpb: unpacking field %d (%s): %w", fd.Number, fd.Name, err)
		}
		c.repeated = append(c.repeated, vals...)
		return nil
	}
	if !compatibleWireType(fd.Type, f.Value.Type) {
		m.appendUnknown(f)
		return nil
	}
	c.repeated = append(c.repeated, decodeScalarValue(fd.Type, f.Value))
	return nil
}

func (m *Message) decodeMapEntry(mf *descriptor.MapDescriptor, f wire.Field) error {
	if f.Value.Type != wire.BytesType {
		m.appendUnknown(f)
		return nil
	}
	var key, val any
	haveKey, haveVal := false, false
	entry := wire.NewFieldIterator(f.Value.Bytes())
	keyType := descriptor.FromScalar(mf.KeyType)
	for {
		ef, ok := entry.Next()
		if !ok {
			break
		}
		switch ef.Number {
		case 1:
			if compatibleWireType(keyType, ef.Value.Type) {
				key = decodeScalarValue(keyType, ef.Value)
				haveKey = true
			}
		case 2:
			if mf.ValueType == descriptor.TypeMessage {
				sub, err := m.newMessageFor(mf.ValueTypeName)
				if err != nil {
					return err
				}
				if ef.Value.Type == wire.BytesType {
					if err := sub.decodeInto(ef.Value.Bytes()); err != nil {
						return err
					}
					val, haveVal = sub, true
				}
			} else if compatibleWireType(mf.ValueType, ef.Value.Type) {
				val = decodeScalarValue(mf.ValueType, ef.Value)
				haveVal = true
			}
		}
	}
	if err := entry.Err(); err != nil {
		return fmt.Errorf("dynamicpb: decoding map entry field %d: %w", mf.Number, err)
	}
	if !haveKey {
		key = zeroScalar(keyType)
	}
	if !haveVal {
		if mf.ValueType == descriptor.TypeMessage {
			sub, err := m.newMessageFor(mf.ValueTypeName)
			if err != nil {
				return err
			}
			val = sub
		} else {
			val = zeroScalar(mf.ValueType)
		}
	}
	c := m.cellFor(mf.Number)
	if c == nil {
		c = &cell{kind: cellMap, m: orderedmap.New[any, any]()}
		m.cells[mf.Number] = c
	}
	c.m.Set(key, val)
	return nil
}

// appendUnknown re-synthesizes a tag+value pair for f and appends it to the
// unknown trailer. The iterator already decoded f's value in its native
// form, so this reproduces exactly the bytes a matching encode would have
// produced — sufficient for the round-trip property, without needing to
// retain the original raw byte span.
func (m *Message) appendUnknown(f wire.Field) {
	switch f.Value.Type {
	case wire.VarintType:
		m.unknown = wire.AppendVarintField(m.unknown, f.Number, f.Value.Varint())
	case wire.Fixed32Type:
		m.unknown = wire.AppendFixed32Field(m.unknown, f.Number, f.Value.Fixed32())
	case wire.Fixed64Type:
		m.unknown = wire.AppendFixed64Field(m.unknown, f.Number, f.Value.Fixed64())
	case wire.BytesType:
		m.unknown = wire.AppendLenField(m.unknown, f.Number, f.Value.Bytes())
	}
}

func compatibleWireType(t descriptor.FieldType, wt wire.Type) bool {
	switch {
	case t.IsVarint():
		return wt == wire.VarintType
	case t.IsFixed32():
		return wt == wire.Fixed32Type
	case t.IsFixed64():
		return wt == wire.Fixed64Type
	case t.IsLen():
		return wt == wire.BytesType
	default:
		return false
	}
}

func decodeScalarValue(t descriptor.FieldType, fv wire.FieldValue) any {
	switch t {
	case descriptor.TypeInt32:
		return int32(fv.Varint())
	case descriptor.TypeInt64:
		return int64(fv.Varint())
	case descriptor.TypeUint32:
		return uint32(fv.Varint())
	case descriptor.TypeUint64:
		return fv.Varint()
	case descriptor.TypeSint32:
		return wire.DecodeZigZag32(uint32(fv.Varint()))
	case descriptor.TypeSint64:
		return wire.DecodeZigZag64(fv.Varint())
	case descriptor.TypeBool:
		return fv.Varint() != 0
	case descriptor.TypeEnum:
		return int32(fv.Varint())
	case descriptor.TypeFixed32:
		return fv.Fixed32()
	case descriptor.TypeSfixed32:
		return int32(fv.Fixed32())
	case descriptor.TypeFloat:
		return wire.DecodeFloat(fv.Fixed32())
	case descriptor.TypeFixed64:
		return fv.Fixed64()
	case descriptor.TypeSfixed64:
		return int64(fv.Fixed64())
	case descriptor.TypeDouble:
		return wire.DecodeDouble(fv.Fixed64())
	case descriptor.TypeString:
		return string(fv.Bytes())
	case descriptor.TypeBytes:
		return append([]byte(nil), fv.Bytes()...)
	default:
		return nil
	}
}

func zeroScalar(t descriptor.FieldType) any {
	switch t {
	case descriptor.TypeDouble:
		return float64(0)
	case descriptor.TypeFloat:
		return float32(0)
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32, descriptor.TypeEnum:
		return int32(0)
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return int64(0)
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		return uint32(0)
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return uint64(0)
	case descriptor.TypeBool:
		return false
	case descriptor.TypeString:
		return ""
	case descriptor.TypeBytes:
		return []byte(nil)
	default:
		return nil
	}
}

// unpackScalars decodes a packed run: repeated bare values of type t with
// no per-element tags, back to back until data is exhausted.
func unpackScalars(t descriptor.FieldType, data []byte) ([]any, error) {
	var out []any
	for len(data) > 0 {
		switch {
		case t.IsVarint():
			v, n, err := wire.ConsumeVarint(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			out = append(out, decodeVarintScalar(t, v))
		case t.IsFixed32():
			v, n, err := wire.ConsumeFixed32(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			out = append(out, decodeFixed32Scalar(t, v))
		case t.IsFixed64():
			v, n, err := wire.ConsumeFixed64(data)
			if err != nil {
				return nil, err
			}
			data = data[n:]
			out = append(out, decodeFixed64Scalar(t, v))
		default:
			return nil, fmt.Errorf("dynamicpb: type is not packable")
		}
	}
	return out, nil
}

func decodeVarintScalar(t descriptor.FieldType, v uint64) any {
	switch t {
	case descriptor.TypeInt32:
		return int32(v)
	case descriptor.TypeInt64:
		return int64(v)
	case descriptor.TypeUint32:
		return uint32(v)
	case descriptor.TypeUint64:
		return v
	case descriptor.TypeSint32:
		return wire.DecodeZigZag32(uint32(v))
	case descriptor.TypeSint64:
		return wire.DecodeZigZag64(v)
	case descriptor.TypeBool:
		return v != 0
	case descriptor.TypeEnum:
		return int32(v)
	default:
		return nil
	}
}

func decodeFixed32Scalar(t descriptor.FieldType, v uint32) any {
	if t == descriptor.TypeFloat {
		return wire.DecodeFloat(v)
	}
	if t == descriptor.TypeSfixed32 {
		return int32(v)
	}
	return v
}

func decodeFixed64Scalar(t descriptor.FieldType, v uint64) any {
	if t == descriptor.TypeDouble {
		return wire.DecodeDouble(v)
	}
	if t == descriptor.TypeSfixed64 {
		return int64(v)
	}
	return v
}

// Encode appends this message's wire form to buf, fields in ascending
// field-number order, followed by its unknown trailer.
func (m *Message) Encode(buf []byte) []byte {
	nums := make([]int32, 0, len(m.cells))
	for num := range m.cells {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	for _, num := range nums {
		c := m.cells[num]
		if fd := m.desc.FieldByNumber(num); fd != nil {
			buf = encodeFieldCell(buf, fd, c)
			continue
		}
		if mf := m.desc.MapByNumber(num); mf != nil {
			buf = encodeMapCell(buf, mf, c)
		}
	}
	return append(buf, m.unknown...)
}

// CalcSize returns len(m.Encode(nil)); it encodes m into a temporary buffer
// to measure it.
func (m *Message) CalcSize() int {
	return len(m.Encode(nil))
}

func encodeFieldCell(buf []byte, fd *descriptor.FieldDescriptor, c *cell) []byte {
	num := wire.Number(fd.Number)
	switch c.kind {
	case cellScalar:
		return encodeScalarField(buf, num, fd.Type, c.scalar)
	case cellScalarRepeated:
		if fd.Packed && len(c.repeated) > 0 {
			var payload []byte
			for _, v := range c.repeated {
				payload = encodeBareScalar(payload, fd.Type, v)
			}
			return wire.AppendLenField(buf, num, payload)
		}
		for _, v := range c.repeated {
			buf = encodeScalarField(buf, num, fd.Type, v)
		}
		return buf
	case cellMessageKind:
		return wire.AppendLenField(buf, num, c.msg.Encode(nil))
	case cellMessageRepeated:
		for _, sub := range c.repeatedMsg {
			buf = wire.AppendLenField(buf, num, sub.Encode(nil))
		}
		return buf
	}
	return buf
}

func encodeMapCell(buf []byte, mf *descriptor.MapDescriptor, c *cell) []byte {
	num := wire.Number(mf.Number)
	keyType := descriptor.FromScalar(mf.KeyType)
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		var entry []byte
		entry = encodeScalarField(entry, 1, keyType, pair.Key)
		if mf.ValueType == descriptor.TypeMessage {
			sub := pair.Value.(*Message)
			entry = wire.AppendLenField(entry, 2, sub.Encode(nil))
		} else {
			entry = encodeScalarField(entry, 2, mf.ValueType, pair.Value)
		}
		buf = wire.AppendLenField(buf, num, entry)
	}
	return buf
}

func encodeScalarField(buf []byte, num wire.Number, t descriptor.FieldType, v any) []byte {
	switch {
	case t.IsVarint():
		return wire.AppendVarintField(buf, num, varintPayload(t, v))
	case t.IsFixed32():
		return wire.AppendFixed32Field(buf, num, fixed32Payload(t, v))
	case t.IsFixed64():
		return wire.AppendFixed64Field(buf, num, fixed64Payload(t, v))
	case t == descriptor.TypeString:
		return wire.AppendLenField(buf, num, []byte(v.(string)))
	case t == descriptor.TypeBytes:
		return wire.AppendLenField(buf, num, v.([]byte))
	}
	return buf
}

func encodeBareScalar(buf []byte, t descriptor.FieldType, v any) []byte {
	switch {
	case t.IsVarint():
		return wire.AppendVarint(buf, varintPayload(t, v))
	case t.IsFixed32():
		return wire.AppendFixed32(buf, fixed32Payload(t, v))
	case t.IsFixed64():
		return wire.AppendFixed64(buf, fixed64Payload(t, v))
	}
	return buf
}

func varintPayload(t descriptor.FieldType, v any) uint64 {
	switch t {
	case descriptor.TypeInt32:
		return uint64(v.(int32))
	case descriptor.TypeInt64:
		return uint64(v.(int64))
	case descriptor.TypeUint32:
		return uint64(v.(uint32))
	case descriptor.TypeUint64:
		return v.(uint64)
	case descriptor.TypeSint32:
		return uint64(wire.EncodeZigZag32(v.(int32)))
	case descriptor.TypeSint64:
		return wire.EncodeZigZag64(v.(int64))
	case descriptor.TypeBool:
		return wire.BoolToUint64(v.(bool))
	case descriptor.TypeEnum:
		return uint64(uint32(v.(int32)))
	default:
		return 0
	}
}

func fixed32Payload(t descriptor.FieldType, v any) uint32 {
	if t == descriptor.TypeFloat {
		return wire.EncodeFloat(v.(float32))
	}
	if t == descriptor.TypeSfixed32 {
		return uint32(v.(int32))
	}
	return v.(uint32)
}

func fixed64Payload(t descriptor.FieldType, v any) uint64 {
	if t == descriptor.TypeDouble {
		return wire.EncodeDouble(v.(float64))
	}
	if t == descriptor.TypeSfixed64 {
		return uint64(v.(int64))
	}
	return v.(uint64)
}
