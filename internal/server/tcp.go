package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/danmuck/leobridge/internal/protocol"
	"github.com/danmuck/leobridge/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// serveTCP accepts NDJSON clients until ctx ends.
func (s *Service) serveTCP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener runs the NDJSON protocol on an existing listener. It closes ln
// when ctx ends.
func (s *Service) ServeListener(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	log.Info().Str("addr", ln.Addr().String()).Msg("server.tcp listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer stop()
			s.ServeConn(conn)
		}()
	}
}

// ServeConn runs one session over rw: the ready frame, then one response frame
// per request frame until the peer hangs up. MaxFrameBytes bounds requests
// only; responses are written whole.
func (s *Service) ServeConn(rw io.ReadWriteCloser) {
	defer rw.Close()
	sess := s.newSession(TransportTCP)
	defer s.endSession(sess, TransportTCP)

	ready, err := s.readyFrame()
	if err != nil {
		sess.Logger().Error().Err(err).Msg("server.tcp ready")
		return
	}
	if err := frame.WriteFrame(rw, ready, frame.Limits{}); err != nil {
		sess.Logger().Warn().Err(err).Msg("server.tcp write ready")
		return
	}

	reader := frame.NewReader(rw, s.limits())
	for {
		raw, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, frame.ErrFrameTooLarge) {
				s.rejectOversized(sess, TransportTCP, err)
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				sess.Logger().Warn().Err(err).Msg("server.tcp read")
			}
			return
		}

		resp, reply := s.handleFrame(sess, TransportTCP, raw)
		if !reply {
			continue
		}
		payload, err := protocol.EncodeResponse(resp)
		if err != nil {
			sess.Logger().Error().Int("id", resp.ID).Err(err).Msg("server.tcp encode response")
			payload, _ = protocol.EncodeResponse(protocol.ErrorResponse(resp.ID, err))
		}
		if err := frame.WriteFrame(rw, payload, frame.Limits{}); err != nil {
			sess.Logger().Warn().Err(err).Msg("server.tcp write")
			return
		}
	}
}
