// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe

import (
	"context"
	"fmt"
)

// Client issues CALL frames over a Transport and interprets the responses.
// Generated per-service clients hold one of these and add one strongly
// typed method per RPC, each a thin wrapper around one of the Call*
// functions below.
type Client struct {
	tr Transport
}

// NewClient wraps tr as a Client.
func NewClient(tr Transport) *Client {
	return &Client{tr: tr}
}

// Transport exposes the underlying Transport so a generated client can hand
// it to a SendStream/RecvStream constructor directly.
func (c *Client) Transport() Transport { return c.tr }

// CallUnary sends req as a CALL to fullPath and decodes the single RESPONSE
// that follows into a new Resp.
func CallUnary[Req Encodable, Resp any, PResp interface {
	*Resp
	Decodable
}](ctx context.Context, c *Client, fullPath string, req Req) (*Resp, error) {
	if err := sendCall(ctx, c.tr, fullPath, req); err != nil {
		return nil, err
	}
	f, err := c.tr.ReadFrame(ctx)
	if err != nil {
		return nil, err
	}
	switch f.Type {
	case Response:
		var v Resp
		if err := PResp(&v).Decode(f.Payload); err != nil {
			return nil, fmt.Errorf("rpcframe: decoding response: %w", err)
		}
		return &v, nil
	case Error:
		return nil, fmt.Errorf("rpcframe: %s", string(f.Payload))
	default:
		return nil, fmt.Errorf("rpcframe: unary call got %s: %w", f.Type, ErrUnexpectedFrameType)
	}
}

// CallServerStream sends req as a CALL to fullPath and returns a RecvStream
// over the STREAM_MSG frames the server replies with.
func CallServerStream[Req Encodable, Resp any, PResp interface {
	*Resp
	Decodable
}](ctx context.Context, c *Client, fullPath string, req Req) (*RecvStream[Resp, PResp], error) {
	if err := sendCall(ctx, c.tr, fullPath, req); err != nil {
		return nil, err
	}
	return NewRecvStream[Resp, PResp](c.tr), nil
}

// CallClientStream sends a CALL with an empty initial payload (the request
// body travels entirely as STREAM_MSG frames), returning a SendStream for
// the caller's outgoing messages and a Future for the server's single
// eventual response.
func CallClientStream[Req Encodable, Resp any, PResp interface {
	*Resp
	Decodable
}](ctx context.Context, c *Client, fullPath string) (*SendStream[Req], *Future[*Resp], error) {
	if err := sendCall(ctx, c.tr, fullPath, nil); err != nil {
		return nil, nil, err
	}
	fut := newFuture[*Resp]()
	go func() {
		f, err := c.tr.ReadFrame(ctx)
		if err != nil {
			fut.resolve(nil, err)
			return
		}
		switch f.Type {
		case Response:
			var v Resp
			if err := PResp(&v).Decode(f.Payload); err != nil {
				fut.resolve(nil, fmt.Errorf("rpcframe: decoding response: %w", err))
				return
			}
			fut.resolve(&v, nil)
		case Error:
			fut.resolve(nil, fmt.Errorf("rpcframe: %s", string(f.Payload)))
		default:
			fut.resolve(nil, fmt.Errorf("rpcframe: client-stream response got %s: %w", f.Type, ErrUnexpectedFrameType))
		}
	}()
	return NewSendStream[Req](c.tr), fut, nil
}

// CallBidi sends a CALL with an empty initial payload and returns both a
// SendStream for the caller's outgoing messages and a RecvStream for the
// server's replies, which may interleave freely.
func CallBidi[Req Encodable, Resp any, PResp interface {
	*Resp
	Decodable
}](ctx context.Context, c *Client, fullPath string) (*SendStream[Req], *RecvStream[Resp, PResp], error) {
	if err := sendCall(ctx, c.tr, fullPath, nil); err != nil {
		return nil, nil, err
	}
	return NewSendStream[Req](c.tr), NewRecvStream[Resp, PResp](c.tr), nil
}

// sendCall writes the initial CALL frame. req may be nil for the
// streaming-request shapes, whose payload travels as STREAM_MSG frames
// instead.
func sendCall(ctx context.Context, tr Transport, fullPath string, req Encodable) error {
	var body []byte
	if req != nil {
		body = req.Encode(make([]byte, 0, req.CalcSize()))
	}
	payload := EncodeCallPayload(fullPath, body)
	if err := tr.WriteFrame(ctx, Frame{Type: Call, Payload: payload}); err != nil {
		return err
	}
	return tr.Flush()
}
