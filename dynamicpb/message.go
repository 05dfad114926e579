// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dynamicpb implements a schema-driven runtime message: a record
// whose shape comes entirely from a *descriptor.MessageDescriptor rather
// than from a generated Go struct. It exists for tooling that only ever
// sees a .proto schema at run time — a generic wire inspector, a relay that
// forwards messages it was never compiled against, a test harness building
// fixtures straight off a descriptor.
package dynamicpb

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/mattnite/protoc-zero/descriptor"
)

// cellKind distinguishes the five storage shapes a dynamic field can hold.
type cellKind int

const (
	cellScalar cellKind = iota + 1
	cellScalarRepeated
	cellMessageKind
	cellMessageRepeated
	cellMap
)

type cell struct {
	kind cellKind

	scalar   any
	repeated []any

	msg         *Message
	repeatedMsg []*Message

	// m generalizes spec.md's map<scalar,scalar> cell to allow a
	// message-typed value, since the underlying orderedmap.OrderedMap
	// storage already supports it at no extra cost; see DESIGN.md.
	m *orderedmap.OrderedMap[any, any]
}

// Message is a dynamically typed protocol buffer record.
//
// Operations on a Message are not safe for concurrent use without external
// synchronization.
type Message struct {
	desc  *descriptor.MessageDescriptor
	files *descriptor.Files

	cells   map[int32]*cell
	unknown []byte
}

// New returns an empty message of the type desc describes. files resolves
// the FQN of any message- or enum-typed field desc references (sub-message
// field, map value, oneof member) when the caller later navigates into it.
func New(desc *descriptor.MessageDescriptor, files *descriptor.Files) *Message {
	return &Message{desc: desc, files: files, cells: map[int32]*cell{}}
}

// Descriptor returns the message's descriptor.
func (m *Message) Descriptor() *descriptor.MessageDescriptor { return m.desc }

// Unknown returns the raw bytes of every field decode found incompatible
// with the descriptor, or never registered under any field number at all.
func (m *Message) Unknown() []byte { return m.unknown }

func (m *Message) cellFor(num int32) *cell {
	c, ok := m.cells[num]
	if !ok {
		return nil
	}
	return c
}

// clearOneofSiblings drops any other field already populated in fd's oneof,
// matching the single-active-member invariant generated code enforces via
// its oneof interface field.
func (m *Message) clearOneofSiblings(fd *descriptor.FieldDescriptor) {
	if fd.OneofIndex < 0 || fd.OneofIndex >= len(m.desc.Oneofs) {
		return
	}
	for _, idx := range m.desc.Oneofs[fd.OneofIndex].FieldIndices {
		sib := m.desc.Fields[idx]
		if sib.Number != fd.Number {
			delete(m.cells, sib.Number)
		}
	}
}

// Get returns the value of a populated singular scalar field, and whether
// it was populated at all.
func (m *Message) Get(num int32) (any, bool) {
	c := m.cellFor(num)
	if c == nil || c.kind != cellScalar {
		return nil, false
	}
	return c.scalar, true
}

// Set stores v in the singular scalar field num, enforcing fd's declared
// Go type. It panics if num names no field on this message's descriptor;
// a repeated or message-typed field, or a value of the wrong Go type, is
// reported as an error instead.
func (m *Message) Set(num int32, v any) error {
	fd := m.desc.FieldByNumber(num)
	if fd == nil {
		panic(fmt.Sprintf("dynamicpb: %s has no field %d", m.desc.FQN, num))
	}
	if fd.IsRepeated() {
		return fmt.Errorf("dynamicpb: field %d (%s) is repeated; use AppendRepeated", num, fd.Name)
	}
	if fd.Type == descriptor.TypeMessage {
		return fmt.Errorf("dynamicpb: field %d (%s) is a message; use SetMessage", num, fd.Name)
	}
	if !scalarTypeMatches(fd.Type, v) {
		return fmt.Errorf("dynamicpb: field %d (%s): value %T incompatible with declared type", num, fd.Name, v)
	}
	m.clearOneofSiblings(fd)
	m.cells[num] = &cell{kind: cellScalar, scalar: v}
	return nil
}

// GetRepeated returns the elements of a populated repeated scalar field.
func (m *Message) GetRepeated(num int32) []any {
	c := m.cellFor(num)
	if c == nil || c.kind != cellScalarRepeated {
		return nil
	}
	return c.repeated
}

// AppendRepeated appends v to repeated scalar field num.
func (m *Message) AppendRepeated(num int32, v any) error {
	fd := m.desc.FieldByNumber(num)
	if fd == nil || !fd.IsRepeated() || fd.Type == descriptor.TypeMessage {
		return fmt.Errorf("dynamicpb: field %d is not a repeated scalar field", num)
	}
	if !scalarTypeMatches(fd.Type, v) {
		return fmt.Errorf("dynamicpb: field %d (%s): value %T incompatible with declared type", num, fd.Name, v)
	}
	c := m.cellFor(num)
	if c == nil {
		c = &cell{kind: cellScalarRepeated}
		m.cells[num] = c
	}
	c.repeated = append(c.repeated, v)
	return nil
}

// GetMessage returns a populated singular message field.
func (m *Message) GetMessage(num int32) (*Message, bool) {
	c := m.cellFor(num)
	if c == nil || c.kind != cellMessageKind {
		return nil, false
	}
	return c.msg, true
}

// SetMessage stores v in singular message field num. v's descriptor FQN
// must match the field's declared type name.
func (m *Message) SetMessage(num int32, v *Message) error {
	fd := m.desc.FieldByNumber(num)
	if fd == nil || fd.IsRepeated() || fd.Type != descriptor.TypeMessage {
		return fmt.Errorf("dynamicpb: field %d is not a singular message field", num)
	}
	if v.desc.FQN != fd.TypeName {
		return fmt.Errorf("dynamicpb: field %d (%s): expected message type %s, got %s", num, fd.Name, fd.TypeName, v.desc.FQN)
	}
	m.clearOneofSiblings(fd)
	m.cells[num] = &cell{kind: cellMessageKind, msg: v}
	return nil
}

// GetRepeatedMessage returns the elements of a populated repeated message field.
func (m *Message) GetRepeatedMessage(num int32) []*Message {
	c := m.cellFor(num)
	if c == nil || c.kind != cellMessageRepeated {
		return nil
	}
	return c.repeatedMsg
}

// AppendRepeatedMessage appends v to repeated message field num.
func (m *Message) AppendRepeatedMessage(num int32, v *Message) error {
	fd := m.desc.FieldByNumber(num)
	if fd == nil || !fd.IsRepeated() || fd.Type != descriptor.TypeMessage {
		return fmt.Errorf("dynamicpb: field %d is not a repeated message field", num)
	}
	if v.desc.FQN != fd.TypeName {
		return fmt.Errorf("dynamicpb: field %d (%s): expected message type %s, got %s", num, fd.Name, fd.TypeName, v.desc.FQN)
	}
	c := m.cellFor(num)
	if c == nil {
		c = &cell{kind: cellMessageRepeated}
		m.cells[num] = c
	}
	c.repeatedMsg = append(c.repeatedMsg, v)
	return nil
}

// NewMessage returns a new, empty message suitable for field num, resolved
// through the Files registry this Message was constructed with.
func (m *Message) NewMessage(num int32) (*Message, error) {
	fd := m.desc.FieldByNumber(num)
	if fd == nil || fd.Type != descriptor.TypeMessage {
		return nil, fmt.Errorf("dynamicpb: field %d is not a message field", num)
	}
	return m.newMessageFor(fd.TypeName)
}

func (m *Message) newMessageFor(fqn string) (*Message, error) {
	if m.files == nil {
		return nil, fmt.Errorf("dynamicpb: %s: no Files registry to resolve %s", m.desc.FQN, fqn)
	}
	md, ok := m.files.MessageByName(fqn)
	if !ok {
		return nil, fmt.Errorf("dynamicpb: unresolved message type %q", fqn)
	}
	return New(md, m.files), nil
}

// GetMap returns the ordered key/value pairs of a populated map field, or
// nil if it was never written to.
func (m *Message) GetMap(num int32) *orderedmap.OrderedMap[any, any] {
	c := m.cellFor(num)
	if c == nil || c.kind != cellMap {
		return nil
	}
	return c.m
}

// PutMap stores the (key, value) pair in map field num, enforcing the
// descriptor's declared key and value types.
func (m *Message) PutMap(num int32, key, value any) error {
	mf := m.desc.MapByNumber(num)
	if mf == nil {
		return fmt.Errorf("dynamicpb: field %d is not a map field", num)
	}
	if !scalarTypeMatches(descriptor.FromScalar(mf.KeyType), key) {
		return fmt.Errorf("dynamicpb: map field %d: key %T incompatible with declared key type", num, key)
	}
	if mf.ValueType == descriptor.TypeMessage {
		mv, ok := value.(*Message)
		if !ok || mv.desc.FQN != mf.ValueTypeName {
			return fmt.Errorf("dynamicpb: map field %d: value incompatible with declared message value type %s", num, mf.ValueTypeName)
		}
	} else if !scalarTypeMatches(mf.ValueType, value) {
		return fmt.Errorf("dynamicpb: map field %d: value %T incompatible with declared value type", num, value)
	}
	c := m.cellFor(num)
	if c == nil {
		c = &cell{kind: cellMap, m: orderedmap.New[any, any]()}
		m.cells[num] = c
	}
	c.m.Set(key, value)
	return nil
}

// scalarTypeMatches reports whether v is the Go type a field of type t
// stores. Enum-typed fields are represented as int32, matching the raw
// numeric value a schema-ignorant caller would otherwise have to know the
// generated constant for.
func scalarTypeMatches(t descriptor.FieldType, v any) bool {
	switch t {
	case descriptor.TypeDouble:
		_, ok := v.(float64)
		return ok
	case descriptor.TypeFloat:
		_, ok := v.(float32)
		return ok
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		_, ok := v.(int32)
		return ok
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		_, ok := v.(int64)
		return ok
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		_, ok := v.(uint32)
		return ok
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		_, ok := v.(uint64)
		return ok
	case descriptor.TypeBool:
		_, ok := v.(bool)
		return ok
	case descriptor.TypeString:
		_, ok := v.(string)
		return ok
	case descriptor.TypeBytes:
		_, ok := v.([]byte)
		return ok
	case descriptor.TypeEnum:
		_, ok := v.(int32)
		return ok
	default:
		return false
	}
}
