package server

import (
	"bufio"
	"io"
	"testing"

	json "github.com/goccy/go-json"
)

func newTestService(t *testing.T, cfg ServiceConfig) *Service {
	t.Helper()
	cfg.Heartbeat = 0
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func sendJSON(t *testing.T, w io.Writer, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	sendRaw(t, w, string(raw))
}

func sendRaw(t *testing.T, w io.Writer, line string) {
	t.Helper()
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		t.Fatalf("write request: %v", err)
	}
}

func readEnvelope(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()
	line, err := r.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return decodeEnvelope(t, line)
}

func decodeEnvelope(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode response %q: %v", raw, err)
	}
	return out
}

func envelopeID(t *testing.T, env map[string]any) int {
	t.Helper()
	id, ok := env["id"].(float64)
	if !ok {
		t.Fatalf("response without numeric id: %+v", env)
	}
	return int(id)
}
