package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/leobridge/internal/bridge"
	"github.com/danmuck/leobridge/internal/observability"
	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/protocol"
	"github.com/danmuck/leobridge/internal/protocol/frame"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	TransportTCP  = "tcp"
	TransportWS   = "ws"
	TransportPipe = "pipe"
)

var ErrNoListeners = errors.New("server: no listener configured")

// ServiceConfig configures the bridge listeners and per-session defaults.
type ServiceConfig struct {
	TCPAddr        string
	HTTPAddr       string
	CorsOrigins    []string
	MaxFrameBytes  int
	OpenOnStart    string
	WatchDocuments bool
	VerifyOnOpen   bool
	ReadyID        int
	Heartbeat      time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		TCPAddr:       "127.0.0.1:32125",
		HTTPAddr:      "",
		CorsOrigins:   []string{"http://localhost:3000"},
		MaxFrameBytes: frame.DefaultLimits().MaxFrameBytes,
		VerifyOnOpen:  true,
		ReadyID:       protocol.ReadyID,
		Heartbeat:     30 * time.Second,
	}
}

// Service owns the shared dispatcher and the listeners built from cfg.
type Service struct {
	cfg        ServiceConfig
	dispatcher *bridge.Dispatcher
	opener     bridge.Opener
	clients    atomic.Int64
	started    time.Time
	ready      atomic.Bool
}

func NewService(cfg ServiceConfig) (*Service, error) {
	d, err := bridge.NewDispatcher()
	if err != nil {
		return nil, err
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = frame.DefaultLimits().MaxFrameBytes
	}
	if cfg.ReadyID == 0 {
		cfg.ReadyID = protocol.ReadyID
	}
	return &Service{
		cfg:        cfg,
		dispatcher: d,
		opener:     outline.Open,
		started:    time.Now(),
	}, nil
}

func (s *Service) Config() ServiceConfig {
	return s.cfg
}

func (s *Service) ClientCount() int64 {
	return s.clients.Load()
}

// Run blocks until SIGINT/SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs every configured network listener until ctx ends or one fails.
func (s *Service) Serve(ctx context.Context) error {
	tcpAddr := strings.TrimSpace(s.cfg.TCPAddr)
	httpAddr := strings.TrimSpace(s.cfg.HTTPAddr)
	if tcpAddr == "" && httpAddr == "" {
		return ErrNoListeners
	}

	g, ctx := errgroup.WithContext(ctx)
	if tcpAddr != "" {
		g.Go(func() error { return s.serveTCP(ctx, tcpAddr) })
	}
	if httpAddr != "" {
		g.Go(func() error { return s.serveHTTP(ctx, httpAddr) })
	}
	if s.cfg.Heartbeat > 0 {
		g.Go(func() error { return s.heartbeat(ctx) })
	}
	s.ready.Store(true)
	log.Info().
		Str("tcp", tcpAddr).
		Str("http", httpAddr).
		Int("actions", len(s.dispatcher.Actions())).
		Msg("server.Service.Serve ready")

	err := g.Wait()
	s.ready.Store(false)
	log.Info().Msg("server.Service.Serve shutdown")
	return err
}

func (s *Service) heartbeat(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			log.Info().
				Int64("clients", s.ClientCount()).
				Dur("uptime", time.Since(s.started).Round(time.Second)).
				Msg("server.Service.heartbeat")
		}
	}
}

// newSession builds a session for one connection and opens the configured
// start document, if any. A failed start open leaves the session unopened.
func (s *Service) newSession(transport string) *bridge.Session {
	sess := bridge.NewSession(bridge.SessionConfig{
		Opener:         s.opener,
		VerifyOnOpen:   s.cfg.VerifyOnOpen,
		WatchDocuments: s.cfg.WatchDocuments,
		Transport:      transport,
	})
	if path := strings.TrimSpace(s.cfg.OpenOnStart); path != "" {
		// Runs as the ready id so it never collides with a client request id.
		if resp := s.dispatcher.Call(sess, s.cfg.ReadyID, bridge.ActionOpen, path); resp.IsError() {
			sess.Logger().Warn().Str("path", path).Str("error", resp.Error).Msg("server.Service open_on_start failed")
		}
	}
	active := s.clients.Add(1)
	observability.SessionOpened(transport)
	sess.Logger().Info().Int64("active_clients", active).Msg("server.Service session started")
	return sess
}

func (s *Service) endSession(sess *bridge.Session, transport string) {
	if err := sess.Close(); err != nil {
		sess.Logger().Warn().Err(err).Msg("server.Service session close")
	}
	remaining := s.clients.Add(-1)
	observability.SessionClosed(transport)
	sess.Logger().Info().Int64("active_clients", remaining).Msg("server.Service session ended")
}

// handleFrame turns one inbound envelope into at most one response. reply is
// false when the frame was unparseable and carried no id to answer to.
func (s *Service) handleFrame(sess *bridge.Session, transport string, raw []byte) (resp protocol.Response, reply bool) {
	req, err := protocol.ParseRequest(raw)
	if err != nil {
		observability.RecordMalformedFrame(transport)
		sess.Logger().Warn().Err(err).Int("bytes", len(raw)).Msg("server.Service malformed frame")
		id, ok := protocol.PeekID(raw)
		if !ok {
			return protocol.Response{}, false
		}
		sess.SetActionID(id)
		return protocol.ErrorResponse(id, err), true
	}
	return s.dispatcher.Dispatch(sess, req), true
}

func (s *Service) limits() frame.Limits {
	return frame.Limits{MaxFrameBytes: s.cfg.MaxFrameBytes}
}

func (s *Service) readyFrame() ([]byte, error) {
	payload, err := protocol.EncodeResponse(protocol.Ready(s.cfg.ReadyID))
	if err != nil {
		return nil, fmt.Errorf("server: encode ready frame: %w", err)
	}
	return payload, nil
}

func (s *Service) rejectOversized(sess *bridge.Session, transport string, err error) {
	observability.RecordMalformedFrame(transport)
	sess.Logger().Warn().Int("limit", s.cfg.MaxFrameBytes).Err(err).Msg("server.Service oversized frame dropped")
}
