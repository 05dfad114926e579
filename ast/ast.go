// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the immutable syntax tree produced by the parser
// package and consumed by the linker and code generator.
//
// Every node in the tree is a plain, already-fully-built value: the parser
// never hands out a node before its children are attached, so downstream
// passes can assume the tree is structurally complete even when it contains
// errors (diagnostics are tracked separately from the AST). Every node
// carries its own source location for error reporting. There is no arena
// object modeled explicitly; in Go a parsed file's nodes, once unreferenced,
// are collected normally, which plays the role the spec's "parse-local
// arena" plays in languages that require one.
package ast

// Pos is a source location: file path, 1-based line, 1-based column.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return "?"
	}
	return p.File + ":" + itoa(p.Line) + ":" + itoa(p.Column)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Syntax is the `syntax = "..."` declaration of a file.
type Syntax int

const (
	// SyntaxUnspecified means the file had no syntax declaration, which
	// proto2 permits (and defaults to) and proto3 requires to be explicit.
	SyntaxUnspecified Syntax = iota
	Proto2
	Proto3
)

func (s Syntax) String() string {
	switch s {
	case Proto2:
		return "proto2"
	case Proto3:
		return "proto3"
	default:
		return "unspecified"
	}
}

// Label is a field's cardinality marker.
type Label int

const (
	// LabelImplicit is the proto3 default: presence is indistinguishable
	// from the zero value.
	LabelImplicit Label = iota
	LabelOptional
	LabelRequired
	LabelRepeated
)

func (l Label) String() string {
	switch l {
	case LabelOptional:
		return "optional"
	case LabelRequired:
		return "required"
	case LabelRepeated:
		return "repeated"
	default:
		return "implicit"
	}
}

// ScalarKind enumerates the 15 scalar field types.
type ScalarKind int

const (
	_ ScalarKind = iota
	Double
	Float
	Int32
	Int64
	Uint32
	Uint64
	Sint32
	Sint64
	Fixed32
	Fixed64
	Sfixed32
	Sfixed64
	Bool
	String
	Bytes
)

var scalarNames = map[ScalarKind]string{
	Double: "double", Float: "float", Int32: "int32", Int64: "int64",
	Uint32: "uint32", Uint64: "uint64", Sint32: "sint32", Sint64: "sint64",
	Fixed32: "fixed32", Fixed64: "fixed64", Sfixed32: "sfixed32", Sfixed64: "sfixed64",
	Bool: "bool", String: "string", Bytes: "bytes",
}

func (k ScalarKind) String() string { return scalarNames[k] }

// ScalarKindByName maps proto keyword text to a ScalarKind, or ok=false if
// name is not a scalar keyword (e.g. it's a message/enum reference).
func ScalarKindByName(name string) (ScalarKind, bool) {
	for k, n := range scalarNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// IsFloatingPoint reports whether k is double or float.
func (k ScalarKind) IsFloatingPoint() bool { return k == Double || k == Float }

// TypeRef is a field's declared type: exactly one of Scalar (Named == "") or
// a possibly-relative type name that the linker must resolve.
type TypeRef struct {
	Scalar ScalarKind // zero value (invalid) if Named != ""
	Named  string     // dotted name as written in source; "" if scalar
}

func (t TypeRef) IsScalar() bool { return t.Named == "" }

// ImportKind distinguishes the three import flavors.
type ImportKind int

const (
	ImportNormal ImportKind = iota
	ImportPublic
	ImportWeak
)

// Import is one `import` statement.
type Import struct {
	Pos  Pos
	Path string
	Kind ImportKind
}

// Option is a single `name = value` pair found in an options block. Value
// holds a Go-native representation: string, bool, int64, float64, or
// Aggregate for `{ ... }` option literals.
type Option struct {
	Pos   Pos
	Name  string
	Value any
}

// Aggregate is an opaque `{ field: value ... }` option literal. The linker
// does not interpret these except to look up the specific well-known keys
// spec.md names (default, json_name, packed, allow_alias), which are parsed
// as plain Options rather than Aggregates when they appear directly on a
// field/enum-value/enum.
type Aggregate struct {
	Fields map[string]any
}

// ReservedRange is one `reserved N to M;` or `reserved N to max;` entry.
// End == MaxFieldNumber encodes "max".
type ReservedRange struct {
	Pos        Pos
	Start, End int32
}

const MaxFieldNumber = 1<<29 - 1

// Field is a plain (non-map, non-oneof-owned) message field.
type Field struct {
	Pos        Pos
	Name       string
	Number     int32
	Label      Label
	Type       TypeRef
	Options    []Option
	OneofIndex int    // -1 if not inside a oneof; set by the parser when building Oneof.Fields
	Extendee   string // non-"" if this Field came from an `extend` block
}

// MapField is a `map<K, V>` field, desugared distinctly from Field per
// spec.md's data model (it is not represented as a synthetic nested message
// at the AST layer; the code generator and linker handle the desugaring).
type MapField struct {
	Pos      Pos
	Name     string
	Number   int32
	KeyType  ScalarKind
	ValueType TypeRef
	Options  []Option
}

// Oneof is a `oneof` block; none of its fields may be repeated or a map.
type Oneof struct {
	Pos    Pos
	Name   string
	Fields []*Field
}

// EnumValue is one `NAME = N` entry inside an enum.
type EnumValue struct {
	Pos     Pos
	Name    string
	Number  int32
	Options []Option
}

// Enum is an `enum` block.
type Enum struct {
	Pos            Pos
	Name           string
	Values         []*EnumValue
	AllowAlias     bool
	ReservedRanges []ReservedRange
	ReservedNames  []string
	Options        []Option
}

// ExtensionRange is an `extensions N to M;` entry (proto2 only).
type ExtensionRange struct {
	Pos        Pos
	Start, End int32
}

// Message is a `message` block.
type Message struct {
	Pos             Pos
	Name            string
	Fields          []*Field
	Oneofs          []*Oneof
	Maps            []*MapField
	Messages        []*Message
	Enums           []*Enum
	ReservedRanges  []ReservedRange
	ReservedNames   []string
	ExtensionRanges []ExtensionRange
	Extensions      []*Field
	Groups          []*Group // proto2 inline groups
	Options         []Option
}

// Group is a proto2 `group NAME = N { ... }` field: syntactic sugar for a
// nested message plus a message-typed field of the same name lower-cased.
// The parser keeps both views so the linker/codegen can pick whichever is
// convenient.
type Group struct {
	Pos     Pos
	Name    string
	Number  int32
	Label   Label
	Message *Message
}

// Method is one `rpc` entry inside a service.
type Method struct {
	Pos             Pos
	Name            string
	InputType       string
	OutputType      string
	ClientStreaming bool
	ServerStreaming bool
	Options         []Option
}

// Service is a `service` block.
type Service struct {
	Pos     Pos
	Name    string
	Methods []*Method
	Options []Option
}

// File is a fully parsed `.proto` source file.
type File struct {
	Path       string
	Syntax     Syntax
	SyntaxPos  Pos
	Package    string
	PackagePos Pos
	Imports    []*Import
	Options    []Option
	Messages   []*Message
	Enums      []*Enum
	Services   []*Service
	Extensions []*Field
}
