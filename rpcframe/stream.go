// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe

import (
	"context"
	"fmt"
)

// Encodable is implemented by every generated message type; it is the
// minimal surface a SendStream needs to turn a value into wire bytes.
type Encodable interface {
	CalcSize() int
	Encode(buf []byte) []byte
}

// Decodable is implemented by a pointer to every generated message type.
type Decodable interface {
	Decode(buf []byte) error
}

// SendStream is the write side of a stream of T messages: zero or more
// Send calls followed by exactly one Close.
type SendStream[T Encodable] struct {
	tr     Transport
	closed bool
}

// NewSendStream wraps tr as a SendStream of T. Exported so gen/service's
// generated client/server thunks can construct one directly.
func NewSendStream[T Encodable](tr Transport) *SendStream[T] {
	return &SendStream[T]{tr: tr}
}

// Send encodes msg and writes it as one STREAM_MSG frame.
func (s *SendStream[T]) Send(ctx context.Context, msg T) error {
	if s.closed {
		return fmt.Errorf("rpcframe: Send after Close: %w", ErrConnectionClosed)
	}
	buf := msg.Encode(make([]byte, 0, msg.CalcSize()))
	if err := s.tr.WriteFrame(ctx, Frame{Type: StreamMsg, Payload: buf}); err != nil {
		return err
	}
	return s.tr.Flush()
}

// Close writes a STREAM_END frame, marking the end of this stream's
// direction. Close is idempotent; calling it twice is a no-op.
func (s *SendStream[T]) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.tr.WriteFrame(ctx, Frame{Type: StreamEnd}); err != nil {
		return err
	}
	return s.tr.Flush()
}

// RecvStream is the read side of a stream of T messages. PT is the pointer
// type that implements Decodable for T — the generic two-parameter "pointer
// method set" pattern needed because Decode is defined on *T, not T.
type RecvStream[T any, PT interface {
	*T
	Decodable
}] struct {
	tr   Transport
	done bool
}

// NewRecvStream wraps tr as a RecvStream of T.
func NewRecvStream[T any, PT interface {
	*T
	Decodable
}](tr Transport) *RecvStream[T, PT] {
	return &RecvStream[T, PT]{tr: tr}
}

// Recv returns the next decoded message, or (nil, nil) once STREAM_END has
// been observed. Calling Recv again after that returns (nil, nil) again.
func (s *RecvStream[T, PT]) Recv(ctx context.Context) (*T, error) {
	if s.done {
		return nil, nil
	}
	f, err := s.tr.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	switch f.Type {
	case StreamEnd:
		s.done = true
		return nil, nil
	case Error:
		s.done = true
		return nil, fmt.Errorf("rpcframe: %s", string(f.Payload))
	case StreamMsg:
		var v T
		if err := PT(&v).Decode(f.Payload); err != nil {
			return nil, fmt.Errorf("rpcframe: decoding stream message: %w", err)
		}
		return &v, nil
	default:
		s.done = true
		return nil, fmt.Errorf("rpcframe: Recv got %s: %w", f.Type, ErrUnexpectedFrameType)
	}
}

// Future resolves to a client-streaming call's single eventual response,
// delivered on a background goroutine that reads the connection.
type Future[T any] struct {
	ch  chan futureResult[T]
	got *futureResult[T]
}

type futureResult[T any] struct {
	val T
	err error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{ch: make(chan futureResult[T], 1)}
}

func (f *Future[T]) resolve(val T, err error) {
	f.ch <- futureResult[T]{val: val, err: err}
}

// Wait blocks until the response arrives, ctx is done, or the Future has
// already been resolved (in which case it returns the cached result).
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if f.got != nil {
		return f.got.val, f.got.err
	}
	select {
	case r := <-f.ch:
		f.got = &r
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
