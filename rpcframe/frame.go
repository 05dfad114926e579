// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpcframe implements a minimal, language-agnostic framing protocol
// for request/response and streaming RPC over any duplex byte stream: a
// socket, a pipe, or a subprocess's stdin/stdout. It exists so that a
// generated client in one process can talk to a generated server in another
// without either side depending on a particular transport.
//
// Every frame on the wire has the shape:
//
//	[1-byte type][4-byte big-endian payload length][payload]
//
// and every integer on the wire, in a frame header or inside a CALL frame's
// method-name length, is big-endian.
//
// No component in this package spawns a goroutine except CallClientStream,
// which must return a Future immediately while the single RESPONSE frame it
// waits on arrives later on the same connection; that one case is an accepted
// exception, not a pattern to extend elsewhere in the package.
package rpcframe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Type identifies the kind of frame on the wire.
type Type byte

const (
	// Call carries a method invocation: [4-byte BE method_len][method_utf8][request_bytes].
	Call Type = 0x01
	// Response carries one unary response message's encoded bytes.
	Response Type = 0x02
	// StreamMsg carries one streamed message's encoded bytes.
	StreamMsg Type = 0x03
	// StreamEnd has an empty payload and marks the end of one direction of a stream.
	StreamEnd Type = 0x04
	// Error carries UTF-8 error text, usually sent by the server.
	Error Type = 0x05
	// Shutdown has an empty payload; sent by the client to end the session cleanly.
	Shutdown Type = 0x06
)

func (t Type) String() string {
	switch t {
	case Call:
		return "CALL"
	case Response:
		return "RESPONSE"
	case StreamMsg:
		return "STREAM_MSG"
	case StreamEnd:
		return "STREAM_END"
	case Error:
		return "ERROR"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return fmt.Sprintf("Type(0x%02x)", byte(t))
	}
}

// Frame is one unit of the wire protocol.
type Frame struct {
	Type    Type
	Payload []byte
}

// ErrConnectionClosed means a write or read found the underlying stream
// already closed; callers should stop using the Transport.
var ErrConnectionClosed = errors.New("rpcframe: connection closed")

// ErrUnexpectedFrameType means a RecvStream or a client call read a frame
// whose type made no sense in context. The server's dispatch loop answers
// such a frame with an ERROR frame instead of returning this error.
var ErrUnexpectedFrameType = errors.New("rpcframe: unexpected frame type")

// MaxPayloadLen bounds the 4-byte length prefix against runaway allocation
// from a malformed or hostile peer; no real message in this system's domain
// approaches it.
const MaxPayloadLen = 1 << 28 // 256 MiB

// ReadFrame reads exactly one frame from r. A short read of any kind
// (including at the very first byte, i.e. a clean EOF) is reported as
// io.ErrUnexpectedEOF or io.EOF respectively so a caller can distinguish
// "peer hung up between frames" from "peer sent a truncated frame".
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		return Frame{}, err // io.EOF: clean end of stream between frames
	}
	if _, err := io.ReadFull(r, hdr[1:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("rpcframe: reading frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > MaxPayloadLen {
		return Frame{}, fmt.Errorf("rpcframe: frame payload length %d exceeds maximum", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("rpcframe: reading frame payload: %w", err)
	}
	return Frame{Type: Type(hdr[0]), Payload: payload}, nil
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, f Frame) error {
	var hdr [5]byte
	hdr[0] = byte(f.Type)
	if len(f.Payload) > MaxPayloadLen {
		return fmt.Errorf("rpcframe: frame payload length %d exceeds maximum", len(f.Payload))
	}
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}
	}
	return nil
}

// EncodeCallPayload builds a CALL frame's payload from a full method path
// (e.g. "/EchoService/Echo") and the already-encoded request bytes.
func EncodeCallPayload(method string, request []byte) []byte {
	mb := []byte(method)
	out := make([]byte, 4+len(mb)+len(request))
	binary.BigEndian.PutUint32(out[:4], uint32(len(mb)))
	copy(out[4:], mb)
	copy(out[4+len(mb):], request)
	return out
}

// DecodeCallPayload splits a CALL frame's payload back into the method path
// and the raw request bytes.
func DecodeCallPayload(payload []byte) (method string, request []byte, err error) {
	if len(payload) < 4 {
		return "", nil, fmt.Errorf("rpcframe: CALL payload too short for method length")
	}
	n := binary.BigEndian.Uint32(payload[:4])
	if uint64(n) > uint64(len(payload)-4) {
		return "", nil, fmt.Errorf("rpcframe: CALL payload method length %d exceeds payload", n)
	}
	method = string(payload[4 : 4+n])
	request = payload[4+n:]
	return method, request, nil
}
