// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import "errors"

// Decode errors. Every decode error is fatal for the current call; none of
// the iterators in this package attempt to recover from one.
var (
	// ErrEndOfStream means the input was truncated mid-value.
	ErrEndOfStream = errors.New("wire: unexpected end of stream")

	// ErrOverflow means a varint took more than 10 bytes, or its 10th byte
	// had a continuation bit or value exceeding what a 64-bit value allows.
	ErrOverflow = errors.New("wire: varint overflows 64 bits")

	// ErrInvalidWireType means a tag's low 3 bits were 6 or 7.
	ErrInvalidWireType = errors.New("wire: invalid wire type")

	// ErrInvalidFieldNumber means a tag decoded to field number 0 or a
	// number greater than 2^29-1.
	ErrInvalidFieldNumber = errors.New("wire: invalid field number")
)
