// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prototext implements the protobuf text format over a
// schema-driven dynamicpb.Message: the human-readable debug format
// produced by Marshal and consumed by Unmarshal. Fields are named by their
// proto field names; JSON names play no part here.
package prototext

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
)

// Marshal renders m in protobuf text format.
func Marshal(m *dynamicpb.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalMessage(&buf, m, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func indent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

func marshalMessage(buf *bytes.Buffer, m *dynamicpb.Message, depth int) error {
	desc := m.Descriptor()

	for _, fd := range desc.Fields {
		if fd.IsRepeated() {
			if fd.Type == descriptor.TypeMessage {
				for _, sub := range m.GetRepeatedMessage(fd.Number) {
					indent(buf, depth)
					fmt.Fprintf(buf, "%s {\n", fd.Name)
					if err := marshalMessage(buf, sub, depth+1); err != nil {
						return err
					}
					indent(buf, depth)
					buf.WriteString("}\n")
				}
				continue
			}
			for _, v := range m.GetRepeated(fd.Number) {
				indent(buf, depth)
				fmt.Fprintf(buf, "%s: %s\n", fd.Name, scalarText(fd.Type, v))
			}
			continue
		}

		if fd.Type == descriptor.TypeMessage {
			sub, ok := m.GetMessage(fd.Number)
			if !ok {
				continue
			}
			indent(buf, depth)
			fmt.Fprintf(buf, "%s {\n", fd.Name)
			if err := marshalMessage(buf, sub, depth+1); err != nil {
				return err
			}
			indent(buf, depth)
			buf.WriteString("}\n")
			continue
		}

		v, ok := m.Get(fd.Number)
		if !ok {
			continue
		}
		indent(buf, depth)
		fmt.Fprintf(buf, "%s: %s\n", fd.Name, scalarText(fd.Type, v))
	}

	for _, mf := range desc.Maps {
		om := m.GetMap(mf.Number)
		if om == nil {
			continue
		}
		for pair := om.Oldest(); pair != nil; pair = pair.Next() {
			indent(buf, depth)
			fmt.Fprintf(buf, "%s {\n", mf.Name)
			indent(buf, depth+1)
			fmt.Fprintf(buf, "key: %s\n", scalarText(descriptor.FromScalar(mf.KeyType), pair.Key))
			if mf.ValueType == descriptor.TypeMessage {
				indent(buf, depth+1)
				buf.WriteString("value {\n")
				if err := marshalMessage(buf, pair.Value.(*dynamicpb.Message), depth+2); err != nil {
					return err
				}
				indent(buf, depth+1)
				buf.WriteString("}\n")
			} else {
				indent(buf, depth+1)
				fmt.Fprintf(buf, "value: %s\n", scalarText(mf.ValueType, pair.Value))
			}
			indent(buf, depth)
			buf.WriteString("}\n")
		}
	}
	return nil
}

func scalarText(t descriptor.FieldType, v any) string {
	switch t {
	case descriptor.TypeString:
		return strconv.Quote(v.(string))
	case descriptor.TypeBytes:
		return strconv.Quote(base64.StdEncoding.EncodeToString(v.([]byte)))
	case descriptor.TypeBool:
		return strconv.FormatBool(v.(bool))
	case descriptor.TypeFloat:
		return floatText(float64(v.(float32)))
	case descriptor.TypeDouble:
		return floatText(v.(float64))
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32, descriptor.TypeEnum:
		return strconv.FormatInt(int64(v.(int32)), 10)
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return strconv.FormatInt(v.(int64), 10)
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		return strconv.FormatUint(uint64(v.(uint32)), 10)
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return strconv.FormatUint(v.(uint64), 10)
	default:
		return fmt.Sprint(v)
	}
}

func floatText(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
