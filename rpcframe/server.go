// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpcframe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Handler bridges one decoded CALL to a user-supplied method implementation
// and writes whatever response frame(s) that RPC shape requires. Generated
// per-service servers build one Handler per method and Register it under
// its full_path.
type Handler func(ctx context.Context, req []byte, tr Transport) error

// Server is a dispatch table of per-method Handlers over a Transport. It
// has no notion of services or message types; gen/service builds that
// layer on top by registering one Handler per RPC method.
type Server struct {
	methods map[string]Handler
	log     *zap.Logger
}

// NewServer returns a Server with no methods registered. log may be nil,
// in which case server activity is not logged.
func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{methods: map[string]Handler{}, log: log}
}

// Register adds h as the handler for fullPath (e.g. "/EchoService/Echo").
// Registering the same path twice replaces the previous handler.
func (s *Server) Register(fullPath string, h Handler) {
	s.methods[fullPath] = h
}

// Serve reads and dispatches CALL frames from tr until the client sends
// SHUTDOWN, the stream ends, or a malformed frame is read. Handler errors
// and unknown-method/unexpected-frame-type conditions are translated into
// ERROR frames and do not stop the loop; only a transport-level error
// (truncated frame, closed connection) does.
func (s *Server) Serve(ctx context.Context, tr Transport) error {
	for {
		f, err := tr.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("rpcframe: server dispatch: %w", err)
		}

		switch f.Type {
		case Shutdown:
			s.log.Debug("rpcframe: client shutdown")
			return nil

		case Call:
			method, req, err := DecodeCallPayload(f.Payload)
			if err != nil {
				return fmt.Errorf("rpcframe: server dispatch: %w", err)
			}
			h, ok := s.methods[method]
			if !ok {
				s.log.Warn("rpcframe: unknown method", zap.String("method", method))
				if werr := s.writeError(ctx, tr, "unknown_method: "+method); werr != nil {
					return werr
				}
				continue
			}
			if err := h(ctx, req, tr); err != nil {
				s.log.Warn("rpcframe: handler error", zap.String("method", method), zap.Error(err))
				if werr := s.writeError(ctx, tr, err.Error()); werr != nil {
					return werr
				}
			}

		default:
			s.log.Warn("rpcframe: unexpected frame type", zap.Stringer("type", f.Type))
			if werr := s.writeError(ctx, tr, "unexpected_frame_type: "+f.Type.String()); werr != nil {
				return werr
			}
		}
	}
}

func (s *Server) writeError(ctx context.Context, tr Transport, text string) error {
	if err := tr.WriteFrame(ctx, Frame{Type: Error, Payload: []byte(text)}); err != nil {
		return err
	}
	return tr.Flush()
}

// RespondUnary encodes resp and writes it as the single RESPONSE frame a
// unary or client-streaming Handler produces.
func RespondUnary[Resp Encodable](ctx context.Context, tr Transport, resp Resp) error {
	buf := resp.Encode(make([]byte, 0, resp.CalcSize()))
	if err := tr.WriteFrame(ctx, Frame{Type: Response, Payload: buf}); err != nil {
		return err
	}
	return tr.Flush()
}

// RecvClientStreamRequest returns a RecvStream over tr for a Handler whose
// request arrives entirely as STREAM_MSG frames rather than in the CALL
// payload. It decodes nothing itself; the Handler reads each request
// message with the stream's Recv.
func RecvClientStreamRequest[Req any, PReq interface {
	*Req
	Decodable
}](tr Transport) *RecvStream[Req, PReq] {
	return NewRecvStream[Req, PReq](tr)
}
