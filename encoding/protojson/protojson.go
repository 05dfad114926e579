// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package protojson implements the proto3 canonical JSON mapping over a
// schema-driven dynamicpb.Message, so any message — generated or purely
// descriptor-described — can be marshaled/unmarshaled without a
// message-specific hand-written mapping.
package protojson

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
)

// Marshal renders m as proto3 canonical JSON.
func Marshal(m *dynamicpb.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalMessage(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalMessage(buf *bytes.Buffer, m *dynamicpb.Message) error {
	desc := m.Descriptor()
	buf.WriteByte('{')
	first := true
	writeComma := func() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
	}

	for _, fd := range desc.Fields {
		if fd.IsRepeated() {
			vals := m.GetRepeated(fd.Number)
			msgs := m.GetRepeatedMessage(fd.Number)
			if fd.Type == descriptor.TypeMessage {
				if len(msgs) == 0 {
					continue
				}
				writeComma()
				writeJSONName(buf, fd.JSONName)
				buf.WriteByte('[')
				for i, sub := range msgs {
					if i > 0 {
						buf.WriteByte(',')
					}
					if err := marshalMessage(buf, sub); err != nil {
						return err
					}
				}
				buf.WriteByte(']')
				continue
			}
			if len(vals) == 0 {
				continue
			}
			writeComma()
			writeJSONName(buf, fd.JSONName)
			buf.WriteByte('[')
			for i, v := range vals {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := marshalScalar(buf, fd.Type, v); err != nil {
					return err
				}
			}
			buf.WriteByte(']')
			continue
		}

		if fd.Type == descriptor.TypeMessage {
			sub, ok := m.GetMessage(fd.Number)
			if !ok {
				continue
			}
			writeComma()
			writeJSONName(buf, fd.JSONName)
			if err := marshalMessage(buf, sub); err != nil {
				return err
			}
			continue
		}

		v, ok := m.Get(fd.Number)
		if !ok {
			continue
		}
		writeComma()
		writeJSONName(buf, fd.JSONName)
		if err := marshalScalar(buf, fd.Type, v); err != nil {
			return err
		}
	}

	for _, mf := range desc.Maps {
		om := m.GetMap(mf.Number)
		if om == nil || om.Len() == 0 {
			continue
		}
		writeComma()
		writeJSONName(buf, mf.JSONName)
		buf.WriteByte('{')
		i := 0
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			writeJSONString(buf, mapKeyString(pair.Key))
			buf.WriteByte(':')
			if mf.ValueType == descriptor.TypeMessage {
				if err := marshalMessage(buf, pair.Value.(*dynamicpb.Message)); err != nil {
					return err
				}
			} else if err := marshalScalar(buf, mf.ValueType, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}

	buf.WriteByte('}')
	return nil
}

func mapKeyString(k any) string {
	switch v := k.(type) {
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func writeJSONName(buf *bytes.Buffer, name string) {
	writeJSONString(buf, name)
	buf.WriteByte(':')
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := marshalGoString(s)
	buf.Write(b)
}

// marshalGoString reuses the standard library's JSON string-escaping rules
// via encoding/json, which produces valid JSON string syntax for any Go
// string.
func marshalGoString(s string) ([]byte, error) {
	return json.Marshal(s)
}

func marshalScalar(buf *bytes.Buffer, t descriptor.FieldType, v any) error {
	switch t {
	case descriptor.TypeBool:
		buf.WriteString(strconv.FormatBool(v.(bool)))
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		buf.WriteString(strconv.FormatInt(int64(v.(int32)), 10))
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		buf.WriteString(strconv.FormatUint(uint64(v.(uint32)), 10))
	case descriptor.TypeEnum:
		buf.WriteString(strconv.FormatInt(int64(v.(int32)), 10))
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		writeJSONString(buf, strconv.FormatInt(v.(int64), 10))
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		writeJSONString(buf, strconv.FormatUint(v.(uint64), 10))
	case descriptor.TypeFloat:
		writeFloat(buf, float64(v.(float32)))
	case descriptor.TypeDouble:
		writeFloat(buf, v.(float64))
	case descriptor.TypeString:
		writeJSONString(buf, v.(string))
	case descriptor.TypeBytes:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(v.([]byte)))
	default:
		return fmt.Errorf("protojson: unsupported scalar type %v", t)
	}
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) {
	buf.WriteString(FloatLiteral(f))
}

// FloatLiteral renders f the way proto3 canonical JSON requires: the three
// special values as quoted string tokens, everything else as a bare JSON
// number. Exported so generated per-message ToJSON methods can produce the
// same float formatting this package's own dynamicpb-driven Marshal uses.
func FloatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return `"NaN"`
	case math.IsInf(f, 1):
		return `"Infinity"`
	case math.IsInf(f, -1):
		return `"-Infinity"`
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// QuoteString renders s as a JSON string literal.
func QuoteString(s string) string {
	b, _ := marshalGoString(s)
	return string(b)
}

// ParseFloatLiteral is FloatLiteral's inverse: it accepts a bare JSON number
// token or one of the three special quoted string tokens.
func ParseFloatLiteral(tok string) (float64, error) {
	switch tok {
	case `"NaN"`:
		return math.NaN(), nil
	case `"Infinity"`:
		return math.Inf(1), nil
	case `"-Infinity"`:
		return math.Inf(-1), nil
	default:
		return strconv.ParseFloat(tok, 64)
	}
}

// ParseIntLiteral accepts a raw JSON token that is either a bare number or
// a quoted decimal string, per proto3's tolerant parse of 64-bit integers.
func ParseIntLiteral(raw []byte) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseInt(s, 10, 64)
	}
	var n int64
	err := json.Unmarshal(raw, &n)
	return n, err
}

// ParseUintLiteral is ParseIntLiteral for unsigned fields.
func ParseUintLiteral(raw []byte) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseUint(s, 10, 64)
	}
	var n uint64
	err := json.Unmarshal(raw, &n)
	return n, err
}
