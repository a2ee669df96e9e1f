package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// sessionKey holds the bridge session id of an upgraded request.
const sessionKey = "leobridge.session"

// BindSession tags an upgraded request with the bridge session it serves.
func BindSession(c *gin.Context, sessionID string) {
	c.Set(sessionKey, sessionID)
}

// RequestLogger logs one line per HTTP request, escalating the level on
// client and server errors. A WebSocket request is logged when its session
// ends, so its duration is the session lifetime.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := requestStatus(c)
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		if id := c.GetString(sessionKey); id != "" {
			event = event.Str("session", id)
		}
		event.
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("server.http request")
	}
}

func RequestMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(c.Request.Method, routePath(c), requestStatus(c), time.Since(start))
	}
}

func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}

// requestStatus reports 101 for requests that became a bridge session; the
// hijacked writer never sees the upgrade status.
func requestStatus(c *gin.Context) int {
	if _, ok := c.Get(sessionKey); ok && c.IsWebsocket() {
		return http.StatusSwitchingProtocols
	}
	return c.Writer.Status()
}
