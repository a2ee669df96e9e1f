package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/leobridge/internal/observability"
	"github.com/danmuck/leobridge/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 5 * time.Second

// Router builds the HTTP surface: the WebSocket endpoint plus probes and
// metrics.
func (s *Service) Router() *gin.Engine {
	observability.RegisterMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestLogger(log.Logger))
	router.Use(observability.RequestMetricsMiddleware())
	if len(s.cfg.CorsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CorsOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", s.handleWebSocket)
	return router
}

func (s *Service) serveHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server.http listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"clients": s.ClientCount(),
		"actions": s.dispatcher.Actions(),
	})
}

func (s *Service) handleReady(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Service) upgrader() *websocket.Upgrader {
	origins := make(map[string]struct{}, len(s.cfg.CorsOrigins))
	for _, o := range s.cfg.CorsOrigins {
		origins[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 {
				return true
			}
			_, ok := origins[origin]
			return ok
		},
	}
}

// handleWebSocket serves one session per connection, one envelope per text
// message.
func (s *Service) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("server.ws upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(int64(s.cfg.MaxFrameBytes))

	sess := s.newSession(TransportWS)
	defer s.endSession(sess, TransportWS)
	observability.BindSession(c, sess.ID)

	ready, err := s.readyFrame()
	if err != nil {
		sess.Logger().Error().Err(err).Msg("server.ws ready")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, ready); err != nil {
		sess.Logger().Warn().Err(err).Msg("server.ws write ready")
		return
	}

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.Logger().Debug().Err(err).Msg("server.ws read")
			}
			return
		}
		if kind != websocket.TextMessage {
			observability.RecordMalformedFrame(TransportWS)
			sess.Logger().Warn().Int("kind", kind).Msg("server.ws non-text message ignored")
			continue
		}

		resp, reply := s.handleFrame(sess, TransportWS, raw)
		if !reply {
			continue
		}
		payload, err := protocol.EncodeResponse(resp)
		if err != nil {
			sess.Logger().Error().Int("id", resp.ID).Err(err).Msg("server.ws encode response")
			payload, _ = protocol.EncodeResponse(protocol.ErrorResponse(resp.ID, err))
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			sess.Logger().Warn().Err(err).Msg("server.ws write")
			return
		}
	}
}
