package protocol

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"
)

// Tags that prefix every line written by the pipe transport.
const (
	TagReady      = "leoBridgeReady"
	TagFileOpened = "fileOpenedReady"
	TagOutline    = "outlineDataReady"
	TagBody       = "bodyDataReady"
	TagBodyLength = "bodyLengthReady"
	TagAck        = "ackReady"
	TagTest       = "testReady"
	TagError      = "errorReady"

	CommandExit = "exit"
)

// LineCommand is one "name:rest-of-line" request.
type LineCommand struct {
	Name string
	Rest string
}

// ParseLine splits at the first colon. A bare word is a command without a
// parameter.
func ParseLine(line string) (LineCommand, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineCommand{}, ErrEmptyLine
	}
	name, rest, _ := strings.Cut(line, ":")
	return LineCommand{
		Name: strings.TrimSpace(name),
		Rest: strings.TrimSpace(rest),
	}, nil
}

// FormatLine renders tag followed by the JSON payload, if any, and a single
// trailing newline.
func FormatLine(tag string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(tag)
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	if bytes.ContainsAny(buf.Bytes(), "\r\n") {
		return nil, ErrEmbeddedNewline
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
