// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package descriptor is the runtime descriptor model: the subset of a
// linked schema that generated code and the dynamic message need at
// runtime, mirroring spec.md 4.F. It is built from a *linker.ResolvedFileSet
// once, after linking succeeds, and is immutable afterward.
package descriptor

import "github.com/mattnite/protoc-zero/ast"

// FieldType mirrors the wire-relevant type of a field, including the two
// kinds (message, enum) a plain ast.TypeRef leaves unresolved until the
// linker has run.
type FieldType int

const (
	TypeDouble FieldType = iota + 1
	TypeFloat
	TypeInt32
	TypeInt64
	TypeUint32
	TypeUint64
	TypeSint32
	TypeSint64
	TypeFixed32
	TypeFixed64
	TypeSfixed32
	TypeSfixed64
	TypeBool
	TypeString
	TypeBytes
	TypeMessage
	TypeEnum
	TypeGroup
)

// FromScalar converts an ast.ScalarKind to the corresponding FieldType.
func FromScalar(k ast.ScalarKind) FieldType {
	switch k {
	case ast.Double:
		return TypeDouble
	case ast.Float:
		return TypeFloat
	case ast.Int32:
		return TypeInt32
	case ast.Int64:
		return TypeInt64
	case ast.Uint32:
		return TypeUint32
	case ast.Uint64:
		return TypeUint64
	case ast.Sint32:
		return TypeSint32
	case ast.Sint64:
		return TypeSint64
	case ast.Fixed32:
		return TypeFixed32
	case ast.Fixed64:
		return TypeFixed64
	case ast.Sfixed32:
		return TypeSfixed32
	case ast.Sfixed64:
		return TypeSfixed64
	case ast.Bool:
		return TypeBool
	case ast.String:
		return TypeString
	case ast.Bytes:
		return TypeBytes
	default:
		return 0
	}
}

// IsVarint reports whether values of this type are VARINT-wire-typed.
func (t FieldType) IsVarint() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeUint32, TypeUint64, TypeSint32, TypeSint64, TypeBool, TypeEnum:
		return true
	default:
		return false
	}
}

// IsFixed32 reports whether values of this type are I32-wire-typed.
func (t FieldType) IsFixed32() bool {
	return t == TypeFixed32 || t == TypeSfixed32 || t == TypeFloat
}

// IsFixed64 reports whether values of this type are I64-wire-typed.
func (t FieldType) IsFixed64() bool {
	return t == TypeFixed64 || t == TypeSfixed64 || t == TypeDouble
}

// IsLen reports whether values of this type are LEN-wire-typed.
func (t FieldType) IsLen() bool {
	return t == TypeString || t == TypeBytes || t == TypeMessage
}

// IsZigZag reports whether this type's varint encoding is zigzag-transformed.
func (t FieldType) IsZigZag() bool { return t == TypeSint32 || t == TypeSint64 }

// FieldDescriptor mirrors one field of a message at runtime.
type FieldDescriptor struct {
	Number     int32
	Name       string
	JSONName   string
	Type       FieldType
	Label      ast.Label
	TypeName   string // FQN, set when Type is TypeMessage or TypeEnum
	OneofIndex int     // index into the owning MessageDescriptor.Oneofs, or -1
	Packed     bool
	Deprecated bool
	HasDefault bool
	Default    string // raw text of the `default` option, if any
}

func (f *FieldDescriptor) IsRepeated() bool { return f.Label == ast.LabelRepeated }
func (f *FieldDescriptor) IsOptional() bool { return f.Label == ast.LabelOptional }
func (f *FieldDescriptor) IsRequired() bool { return f.Label == ast.LabelRequired }

// OneofDescriptor mirrors one oneof of a message.
type OneofDescriptor struct {
	Name         string
	FieldIndices []int // indices into the owning MessageDescriptor.Fields
}

// MapDescriptor mirrors one map field of a message.
type MapDescriptor struct {
	Name          string
	Number        int32
	KeyType       ast.ScalarKind
	ValueType     FieldType
	ValueTypeName string // set when ValueType is TypeMessage or TypeEnum
	JSONName      string
}

// MessageDescriptor mirrors one message.
type MessageDescriptor struct {
	Name        string
	FQN         string
	Fields      []*FieldDescriptor
	Oneofs      []*OneofDescriptor
	Maps        []*MapDescriptor
	Nested      []*MessageDescriptor
	NestedEnums []*EnumDescriptor
}

func (m *MessageDescriptor) FieldByNumber(n int32) *FieldDescriptor {
	for _, f := range m.Fields {
		if f.Number == n {
			return f
		}
	}
	return nil
}

func (m *MessageDescriptor) MapByNumber(n int32) *MapDescriptor {
	for _, mf := range m.Maps {
		if mf.Number == n {
			return mf
		}
	}
	return nil
}

// FieldByName returns the field named name, or nil if there is none.
func (m *MessageDescriptor) FieldByName(name string) *FieldDescriptor {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MapByName returns the map field named name, or nil if there is none.
func (m *MessageDescriptor) MapByName(name string) *MapDescriptor {
	for _, mf := range m.Maps {
		if mf.Name == name {
			return mf
		}
	}
	return nil
}

// EnumValueDescriptor mirrors one named value of an enum.
type EnumValueDescriptor struct {
	Name   string
	Number int32
}

// EnumDescriptor mirrors one enum.
type EnumDescriptor struct {
	Name   string
	FQN    string
	Values []EnumValueDescriptor
	Open   bool // proto3 enums are open (unknown numeric values survive); proto2 are closed
}

func (e *EnumDescriptor) ValueByNumber(n int32) (EnumValueDescriptor, bool) {
	for _, v := range e.Values {
		if v.Number == n {
			return v, true
		}
	}
	return EnumValueDescriptor{}, false
}

func (e *EnumDescriptor) ValueByName(name string) (EnumValueDescriptor, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v, true
		}
	}
	return EnumValueDescriptor{}, false
}

// FileDescriptor mirrors one compiled file.
type FileDescriptor struct {
	Name     string
	Package  string
	Syntax   ast.Syntax
	Messages []*MessageDescriptor
	Enums    []*EnumDescriptor
}
