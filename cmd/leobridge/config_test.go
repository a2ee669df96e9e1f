package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/leobridge/internal/server"
)

func TestLoadServiceConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := loadServiceConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	defaults := server.DefaultServiceConfig()

	if cfg.TCPAddr != "127.0.0.1:7125" {
		t.Fatalf("unexpected tcp addr: %q", cfg.TCPAddr)
	}
	if cfg.HTTPAddr != "127.0.0.1:7126" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if len(cfg.CorsOrigins) != 2 || cfg.CorsOrigins[1] != "vscode-webview://leo" {
		t.Fatalf("unexpected origins: %+v", cfg.CorsOrigins)
	}
	if cfg.OpenOnStart != "notes.leo" {
		t.Fatalf("unexpected open_on_start: %q", cfg.OpenOnStart)
	}
	if !cfg.WatchDocuments {
		t.Fatalf("expected watch_documents enabled")
	}
	if cfg.Heartbeat != time.Minute {
		t.Fatalf("unexpected heartbeat: %v", cfg.Heartbeat)
	}
	if cfg.VerifyOnOpen != defaults.VerifyOnOpen {
		t.Fatalf("verify_on_open default lost")
	}
	if cfg.MaxFrameBytes != defaults.MaxFrameBytes {
		t.Fatalf("unexpected max frame bytes: %d", cfg.MaxFrameBytes)
	}
	if cfg.ReadyID != defaults.ReadyID {
		t.Fatalf("unexpected ready id: %d", cfg.ReadyID)
	}
}

func TestLoadServiceConfigRejects(t *testing.T) {
	cases := map[string]string{
		"bad heartbeat": `heartbeat = "later"`,
		"zero frames":   `max_frame_bytes = 0`,
		"tiny frames":   `max_frame_bytes = 10`,
		"bad extension": `open_on_start = "x.txt"`,
		"no listeners":  "tcp_addr = \"\"\nhttp_addr = \"\"",
		"unknown key":   `seeds = ["seed.flow"]`,
		"syntax":        `tcp_addr = `,
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body+"\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := loadServiceConfig(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadServiceConfigVerifyOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("verify_on_open = false\ntcp_addr = \"\"\nhttp_addr = \"127.0.0.1:0\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VerifyOnOpen || cfg.TCPAddr != "" || cfg.HTTPAddr != "127.0.0.1:0" {
		t.Fatalf("explicit keys not applied: %+v", cfg)
	}
}
