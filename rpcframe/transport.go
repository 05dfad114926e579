// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// Allocator supplies the byte slices a Transport reads frame payloads into.
// The default allocator is a plain make([]byte, n); a pooling allocator
// (e.g. backed by sync.Pool) can be substituted to cut GC pressure on a
// server handling many small streamed messages.
type Allocator interface {
	Alloc(n int) []byte
}

type defaultAllocator struct{}

func (defaultAllocator) Alloc(n int) []byte { return make([]byte, n) }

// Transport is the seam between the frame codec and a concrete byte stream.
// Nothing above this interface mentions TCP, a Unix socket, or a pipe: any
// of them works as long as it is wrapped in an implementation of Transport.
type Transport interface {
	// ReadFrame blocks until one full frame has arrived, ctx is done, or the
	// stream ends.
	ReadFrame(ctx context.Context) (Frame, error)
	// WriteFrame queues one frame for sending; implementations may buffer
	// internally and only flush on Flush or on buffer pressure.
	WriteFrame(ctx context.Context, f Frame) error
	// Flush pushes any buffered output to the underlying stream.
	Flush() error
	// Close releases the underlying stream. In the NewStreamTransport
	// implementation a repeated Close returns the first call's result, and
	// calls made after Close are not mapped to ErrConnectionClosed: they
	// fail, if at all, with the underlying stream's own error.
	Close() error
}

// streamTransport adapts an io.ReadWriteCloser (a net.Conn, an os.Pipe pair
// wrapped together, or a subprocess's combined stdin/stdout) into a
// Transport. Reads and writes are each serialized with their own mutex so
// that concurrent streaming sends/receives on the same connection don't
// interleave partial frames.
type streamTransport struct {
	rw  io.ReadWriteCloser
	br  *bufio.Reader
	bw  *bufio.Writer
	alc Allocator

	readMu  sync.Mutex
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewStreamTransport wraps rw as a Transport. alloc may be nil, in which
// case payload buffers are allocated with plain make().
func NewStreamTransport(rw io.ReadWriteCloser, alloc Allocator) Transport {
	if alloc == nil {
		alloc = defaultAllocator{}
	}
	return &streamTransport{
		rw:  rw,
		br:  bufio.NewReader(rw),
		bw:  bufio.NewWriter(rw),
		alc: alloc,
	}
}

func (t *streamTransport) ReadFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	t.readMu.Lock()
	defer t.readMu.Unlock()
	f, err := ReadFrame(t.br)
	if err != nil {
		return Frame{}, err
	}
	if len(f.Payload) > 0 {
		buf := t.alc.Alloc(len(f.Payload))
		copy(buf, f.Payload)
		f.Payload = buf
	}
	return f, nil
}

func (t *streamTransport) WriteFrame(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return WriteFrame(t.bw, f)
}

func (t *streamTransport) Flush() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.bw.Flush()
}

func (t *streamTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.rw.Close()
	})
	return t.closeErr
}
