package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bridge":
		return bridgeTemplate, nil
	case "outline":
		return outlineTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bridgeTemplate = `tcp_addr = "127.0.0.1:32125"
http_addr = "127.0.0.1:32126"
cors_origins = ["http://localhost:3000"]
max_frame_bytes = 8388608
open_on_start = ""
watch_documents = true
verify_on_open = true
ready_id = 1
heartbeat = "30s"
`

const outlineTemplate = `nodes:
  - gnx: intro
    headline: Introduction
    body: |
      Opened by leobridge.
    expanded: true
    children:
      - gnx: shared
        headline: Shared notes
        body: cloned under both top-level nodes
  - gnx: appendix
    headline: Appendix
    children:
      - gnx: shared
`
