package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/leobridge/internal/config"
	"github.com/danmuck/leobridge/internal/server"
)

// loadServiceConfig applies only the keys present in path over the bridge
// defaults, then validates the result against the canonical schema.
func loadServiceConfig(path string) (server.ServiceConfig, error) {
	cfg := config.DefaultBridgeConfig()

	var raw config.BridgeConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.ServiceConfig{}, fmt.Errorf("load leobridge config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return server.ServiceConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("tcp_addr") {
		cfg.TCPAddr = strings.TrimSpace(raw.TCPAddr)
	}

	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if meta.IsDefined("max_frame_bytes") {
		if raw.MaxFrameBytes <= 0 {
			return server.ServiceConfig{}, fmt.Errorf("max_frame_bytes must be positive")
		}
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}

	if meta.IsDefined("open_on_start") {
		cfg.OpenOnStart = strings.TrimSpace(raw.OpenOnStart)
	}

	if meta.IsDefined("watch_documents") {
		cfg.WatchDocuments = raw.WatchDocuments
	}

	if meta.IsDefined("verify_on_open") {
		cfg.VerifyOnOpen = raw.VerifyOnOpen
	}

	if meta.IsDefined("ready_id") {
		cfg.ReadyID = raw.ReadyID
	}

	if meta.IsDefined("heartbeat") {
		cfg.Heartbeat = strings.TrimSpace(raw.Heartbeat)
	}

	if err := config.ValidateBridgeConfig(cfg); err != nil {
		return server.ServiceConfig{}, fmt.Errorf("validate leobridge config: %w", err)
	}
	return cfg.ServiceConfig(), nil
}

func normalizeOrigins(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
