// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package protojson

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mattnite/protoc-zero/descriptor"
	"github.com/mattnite/protoc-zero/dynamicpb"
)

// Unmarshal parses proto3 canonical JSON into a new message built against
// desc, resolving any sub-message types through files.
func Unmarshal(desc *descriptor.MessageDescriptor, files *descriptor.Files, data []byte) (*dynamicpb.Message, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("protojson: %w", err)
	}
	m := dynamicpb.New(desc, files)
	if err := unmarshalInto(m, raw); err != nil {
		return nil, err
	}
	return m, nil
}

func unmarshalInto(m *dynamicpb.Message, raw map[string]json.RawMessage) error {
	desc := m.Descriptor()

	for _, fd := range desc.Fields {
		v, ok := lookupField(raw, fd.Name, fd.JSONName)
		if !ok {
			continue
		}
		if err := unmarshalField(m, fd, v); err != nil {
			return fmt.Errorf("protojson: field %q: %w", fd.Name, err)
		}
	}

	for _, mf := range desc.Maps {
		v, ok := lookupField(raw, mf.Name, mf.JSONName)
		if !ok {
			continue
		}
		if err := unmarshalMap(m, mf, v); err != nil {
			return fmt.Errorf("protojson: map field %q: %w", mf.Name, err)
		}
	}
	return nil
}

// lookupField tries the canonical lowerCamelCase/json_name form first, then
// falls back to the bare proto field name, matching proto3's "accept both"
// parse leniency.
func lookupField(raw map[string]json.RawMessage, name, jsonName string) (json.RawMessage, bool) {
	if jsonName != "" {
		if v, ok := raw[jsonName]; ok {
			return v, true
		}
	}
	v, ok := raw[name]
	return v, ok
}

func unmarshalField(m *dynamicpb.Message, fd *descriptor.FieldDescriptor, raw json.RawMessage) error {
	if fd.IsRepeated() {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return err
		}
		for _, e := range elems {
			if fd.Type == descriptor.TypeMessage {
				sub, err := m.NewMessage(fd.Number)
				if err != nil {
					return err
				}
				var subRaw map[string]json.RawMessage
				if err := json.Unmarshal(e, &subRaw); err != nil {
					return err
				}
				if err := unmarshalInto(sub, subRaw); err != nil {
					return err
				}
				if err := m.AppendRepeatedMessage(fd.Number, sub); err != nil {
					return err
				}
				continue
			}
			v, err := unmarshalScalar(fd.Type, e)
			if err != nil {
				return err
			}
			if err := m.AppendRepeated(fd.Number, v); err != nil {
				return err
			}
		}
		return nil
	}

	if fd.Type == descriptor.TypeMessage {
		sub, err := m.NewMessage(fd.Number)
		if err != nil {
			return err
		}
		var subRaw map[string]json.RawMessage
		if err := json.Unmarshal(raw, &subRaw); err != nil {
			return err
		}
		if err := unmarshalInto(sub, subRaw); err != nil {
			return err
		}
		return m.SetMessage(fd.Number, sub)
	}

	v, err := unmarshalScalar(fd.Type, raw)
	if err != nil {
		return err
	}
	return m.Set(fd.Number, v)
}

func unmarshalMap(m *dynamicpb.Message, mf *descriptor.MapDescriptor, raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	for k, v := range obj {
		key, err := unmarshalMapKey(mf, k)
		if err != nil {
			return err
		}
		if mf.ValueType == descriptor.TypeMessage {
			sub, err := m.NewMessage(mf.Number)
			if err != nil {
				return err
			}
			var subRaw map[string]json.RawMessage
			if err := json.Unmarshal(v, &subRaw); err != nil {
				return err
			}
			if err := unmarshalInto(sub, subRaw); err != nil {
				return err
			}
			if err := m.PutMap(mf.Number, key, sub); err != nil {
				return err
			}
			continue
		}
		val, err := unmarshalScalar(mf.ValueType, v)
		if err != nil {
			return err
		}
		if err := m.PutMap(mf.Number, key, val); err != nil {
			return err
		}
	}
	return nil
}

// unmarshalMapKey converts a JSON object key, which is always a bare string,
// to the Go value a map field's declared key type stores. Proto only allows
// integral, bool, or string types as map keys, so this never needs the
// float/message branches unmarshalScalar otherwise handles.
func unmarshalMapKey(mf *descriptor.MapDescriptor, k string) (any, error) {
	switch t := descriptor.FromScalar(mf.KeyType); t {
	case descriptor.TypeString:
		return k, nil
	case descriptor.TypeBool:
		return strconv.ParseBool(k)
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		n, err := strconv.ParseInt(k, 10, 32)
		return int32(n), err
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return strconv.ParseInt(k, 10, 64)
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		n, err := strconv.ParseUint(k, 10, 32)
		return uint32(n), err
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return strconv.ParseUint(k, 10, 64)
	default:
		return nil, fmt.Errorf("unsupported map key type %v", t)
	}
}

func unmarshalScalar(t descriptor.FieldType, raw json.RawMessage) (any, error) {
	switch t {
	case descriptor.TypeBool:
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case descriptor.TypeInt32, descriptor.TypeSint32, descriptor.TypeSfixed32:
		n, err := ParseIntLiteral(raw)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case descriptor.TypeUint32, descriptor.TypeFixed32:
		n, err := ParseUintLiteral(raw)
		if err != nil {
			return nil, err
		}
		return uint32(n), nil
	case descriptor.TypeEnum:
		n, err := ParseIntLiteral(raw)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case descriptor.TypeInt64, descriptor.TypeSint64, descriptor.TypeSfixed64:
		return ParseIntLiteral(raw)
	case descriptor.TypeUint64, descriptor.TypeFixed64:
		return ParseUintLiteral(raw)
	case descriptor.TypeFloat:
		f, err := ParseFloatLiteral(string(raw))
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case descriptor.TypeDouble:
		return ParseFloatLiteral(string(raw))
	case descriptor.TypeString:
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case descriptor.TypeBytes:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("unsupported scalar type %v", t)
	}
}

