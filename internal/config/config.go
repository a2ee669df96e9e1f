package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// minFrameBytes keeps a configured limit large enough for one envelope.
const minFrameBytes = 1024

var outlineExtensions = map[string]bool{
	".leo":    true,
	".db":     true,
	".sqlite": true,
	".yaml":   true,
	".yml":    true,
	".json":   true,
}

// BridgeConfig is the canonical leobridge config file.
type BridgeConfig struct {
	TCPAddr        string   `toml:"tcp_addr"`
	HTTPAddr       string   `toml:"http_addr"`
	CorsOrigins    []string `toml:"cors_origins"`
	MaxFrameBytes  int      `toml:"max_frame_bytes"`
	OpenOnStart    string   `toml:"open_on_start"`
	WatchDocuments bool     `toml:"watch_documents"`
	VerifyOnOpen   bool     `toml:"verify_on_open"`
	ReadyID        int      `toml:"ready_id"`
	Heartbeat      string   `toml:"heartbeat"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		TCPAddr:       "127.0.0.1:32125",
		CorsOrigins:   []string{"http://localhost:3000"},
		MaxFrameBytes: 8 * 1024 * 1024,
		VerifyOnOpen:  true,
		ReadyID:       1,
		Heartbeat:     "30s",
	}
}

// LoadBridgeConfig decodes path over the defaults; keys absent from the file
// keep their default values.
func LoadBridgeConfig(path string) (BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if err := loadToml(path, &cfg); err != nil {
		return BridgeConfig{}, err
	}
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if strings.TrimSpace(cfg.TCPAddr) == "" && strings.TrimSpace(cfg.HTTPAddr) == "" {
		return fmt.Errorf("bridge config needs tcp_addr or http_addr")
	}
	if cfg.MaxFrameBytes != 0 && cfg.MaxFrameBytes < minFrameBytes {
		return fmt.Errorf("max_frame_bytes must be at least %d, got %d", minFrameBytes, cfg.MaxFrameBytes)
	}
	if cfg.ReadyID < 0 {
		return fmt.Errorf("ready_id must not be negative")
	}
	if hb := strings.TrimSpace(cfg.Heartbeat); hb != "" {
		d, err := time.ParseDuration(hb)
		if err != nil {
			return fmt.Errorf("heartbeat invalid: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("heartbeat must not be negative")
		}
	}
	if path := strings.TrimSpace(cfg.OpenOnStart); path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		if !outlineExtensions[ext] {
			return fmt.Errorf("open_on_start has unsupported extension %q", ext)
		}
	}
	for i, origin := range cfg.CorsOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("cors_origins[%d] is empty", i)
		}
	}
	return nil
}
