package config

import (
	"strings"
	"time"

	"github.com/danmuck/leobridge/internal/server"
)

// ServiceConfig maps a validated file config onto the server runtime config.
func (c BridgeConfig) ServiceConfig() server.ServiceConfig {
	out := server.DefaultServiceConfig()
	out.TCPAddr = strings.TrimSpace(c.TCPAddr)
	out.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	out.CorsOrigins = append([]string(nil), c.CorsOrigins...)
	if c.MaxFrameBytes > 0 {
		out.MaxFrameBytes = c.MaxFrameBytes
	}
	out.OpenOnStart = strings.TrimSpace(c.OpenOnStart)
	out.WatchDocuments = c.WatchDocuments
	out.VerifyOnOpen = c.VerifyOnOpen
	if c.ReadyID > 0 {
		out.ReadyID = c.ReadyID
	}
	if d, err := time.ParseDuration(strings.TrimSpace(c.Heartbeat)); err == nil {
		out.Heartbeat = d
	}
	return out
}
