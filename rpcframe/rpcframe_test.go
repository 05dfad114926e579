// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/mattnite/protoc-zero/rpcframe"
)

// queryMsg and resultMsg are hand-written stand-ins for generated message
// types: just enough Encode/CalcSize/Decode to exercise the stream and
// client/server plumbing without depending on the code generator.
type queryMsg struct{ Query string }

func (m *queryMsg) CalcSize() int { return 4 + len(m.Query) }
func (m *queryMsg) Encode(buf []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(m.Query)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, m.Query...)
}
func (m *queryMsg) Decode(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("short query")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	m.Query = string(buf[4 : 4+n])
	return nil
}

type resultMsg struct {
	Result string
	Index  int32
}

func (m *resultMsg) CalcSize() int { return 4 + len(m.Result) + 4 }
func (m *resultMsg) Encode(buf []byte) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(m.Result)))
	buf = append(buf, b[:]...)
	buf = append(buf, m.Result...)
	binary.BigEndian.PutUint32(b[:], uint32(m.Index))
	return append(buf, b[:]...)
}
func (m *resultMsg) Decode(buf []byte) error {
	if len(buf) < 4 {
		return fmt.Errorf("short result")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	m.Result = string(buf[:n])
	buf = buf[n:]
	if len(buf) < 4 {
		return fmt.Errorf("short result index")
	}
	m.Index = int32(binary.BigEndian.Uint32(buf[:4]))
	return nil
}

func TestFrameRoundTrip(t *testing.T) {
	cases := []rpcframe.Frame{
		{Type: rpcframe.Call, Payload: rpcframe.EncodeCallPayload("/Svc/Method", []byte("req"))},
		{Type: rpcframe.Response, Payload: []byte("resp")},
		{Type: rpcframe.StreamMsg, Payload: []byte("msg")},
		{Type: rpcframe.StreamEnd, Payload: nil},
		{Type: rpcframe.Error, Payload: []byte("boom")},
		{Type: rpcframe.Shutdown, Payload: nil},
	}
	for _, f := range cases {
		var buf bytes.Buffer
		if err := rpcframe.WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame(%v): %v", f.Type, err)
		}
		got, err := rpcframe.ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%v): %v", f.Type, err)
		}
		if got.Type != f.Type || !bytes.Equal(got.Payload, f.Payload) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, f)
		}
	}
}

func TestCallPayloadRoundTrip(t *testing.T) {
	payload := rpcframe.EncodeCallPayload("/StreamingService/ServerSide", []byte(`{"query":"q"}`))
	method, req, err := rpcframe.DecodeCallPayload(payload)
	if err != nil {
		t.Fatalf("DecodeCallPayload: %v", err)
	}
	if method != "/StreamingService/ServerSide" {
		t.Errorf("method = %q", method)
	}
	if string(req) != `{"query":"q"}` {
		t.Errorf("request = %q", req)
	}
}

// TestServerStreaming mirrors a server-streaming scenario: the client sends
// one CALL carrying a query, the server replies with three STREAM_MSG
// frames plus a STREAM_END.
func TestServerStreaming(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientTr := rpcframe.NewStreamTransport(clientConn, nil)
	serverTr := rpcframe.NewStreamTransport(serverConn, nil)

	srv := rpcframe.NewServer(nil)
	srv.Register("/StreamingService/ServerSide", func(ctx context.Context, req []byte, tr rpcframe.Transport) error {
		var q queryMsg
		if err := q.Decode(req); err != nil {
			return err
		}
		out := rpcframe.NewSendStream[*resultMsg](tr)
		for i := 0; i < 3; i++ {
			msg := &resultMsg{Result: fmt.Sprintf("%s_%d", q.Query, i), Index: int32(i)}
			if err := out.Send(ctx, msg); err != nil {
				return err
			}
		}
		return out.Close(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx, serverTr) }()

	client := rpcframe.NewClient(clientTr)
	recv, err := rpcframe.CallServerStream[*queryMsg, resultMsg, *resultMsg](ctx, client, "/StreamingService/ServerSide", &queryMsg{Query: "q"})
	if err != nil {
		t.Fatalf("CallServerStream: %v", err)
	}

	var got []resultMsg
	for {
		msg, err := recv.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if msg == nil {
			break
		}
		got = append(got, *msg)
	}

	want := []resultMsg{
		{Result: "q_0", Index: 0},
		{Result: "q_1", Index: 1},
		{Result: "q_2", Index: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if err := clientTr.WriteFrame(ctx, rpcframe.Frame{Type: rpcframe.Shutdown}); err != nil {
		t.Fatalf("writing shutdown: %v", err)
	}
	if err := clientTr.Flush(); err != nil {
		t.Fatalf("flushing shutdown: %v", err)
	}
	if err := <-serveDone; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
}

func TestUnknownMethodProducesErrorFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	clientTr := rpcframe.NewStreamTransport(clientConn, nil)
	serverTr := rpcframe.NewStreamTransport(serverConn, nil)

	srv := rpcframe.NewServer(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go srv.Serve(ctx, serverTr)

	payload := rpcframe.EncodeCallPayload("/Nope/Method", nil)
	if err := clientTr.WriteFrame(ctx, rpcframe.Frame{Type: rpcframe.Call, Payload: payload}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := clientTr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	f, err := clientTr.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Type != rpcframe.Error {
		t.Fatalf("got frame type %v, want Error", f.Type)
	}
}
