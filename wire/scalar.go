// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import "math"

// EncodeFloat reinterprets a float32 as its IEEE 754 bit pattern, the form
// an I32-typed field carries on the wire.
func EncodeFloat(v float32) uint32 { return math.Float32bits(v) }

// DecodeFloat is the inverse of EncodeFloat.
func DecodeFloat(v uint32) float32 { return math.Float32frombits(v) }

// EncodeDouble reinterprets a float64 as its IEEE 754 bit pattern, the form
// an I64-typed field carries on the wire.
func EncodeDouble(v float64) uint64 { return math.Float64bits(v) }

// DecodeDouble is the inverse of EncodeDouble.
func DecodeDouble(v uint64) float64 { return math.Float64frombits(v) }

// BoolToUint64 maps a bool to the varint value (0 or 1) it is encoded as.
func BoolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
