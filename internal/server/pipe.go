package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/danmuck/leobridge/internal/bridge"
	"github.com/danmuck/leobridge/internal/protocol"
	"github.com/danmuck/leobridge/internal/protocol/frame"
)

// Legacy line commands and the catalogue actions they map to.
const (
	legacyOpenFile        = "openFile"
	legacyGetSelectedNode = "getSelectedNode"
	legacyGetChildren     = "getChildren"
	legacyGetParent       = "getParent"
	legacyGetBody         = "getBody"
)

var legacyActions = map[string]string{
	legacyOpenFile:        bridge.ActionOpen,
	legacyGetSelectedNode: bridge.ActionGetSelected,
	legacyGetChildren:     bridge.ActionGetChildren,
	legacyGetParent:       bridge.ActionGetParent,
	legacyGetBody:         bridge.ActionGetBody,
}

// ServePipe runs one session over a line stream: "leoBridgeReady" first, then
// one tagged line per command until "exit" or end of input.
func (s *Service) ServePipe(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := s.newSession(TransportPipe)
	defer s.endSession(sess, TransportPipe)

	if err := writeLine(out, protocol.TagReady, nil); err != nil {
		return err
	}

	reader := frame.NewReader(in, s.limits())
	id := s.cfg.ReadyID
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		raw, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, frame.ErrFrameTooLarge) {
				s.rejectOversized(sess, TransportPipe, err)
				if err := writeError(out, err); err != nil {
					return err
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				sess.Logger().Info().Msg("server.pipe input closed")
				return nil
			}
			return err
		}

		cmd, err := protocol.ParseLine(string(raw))
		if err != nil {
			continue
		}
		if cmd.Name == protocol.CommandExit {
			sess.Logger().Info().Msg("server.pipe exit requested")
			return nil
		}

		id++
		req, err := lineRequest(id, cmd)
		if err != nil {
			sess.SetActionID(id)
			sess.Logger().Warn().Str("command", cmd.Name).Err(err).Msg("server.pipe bad command")
			if err := writeError(out, err); err != nil {
				return err
			}
			continue
		}
		resp := s.dispatcher.Dispatch(sess, req)
		if err := writeLineResponse(out, req.Action, resp); err != nil {
			return err
		}
	}
}

// lineRequest converts a legacy or catalogue command into a request envelope.
func lineRequest(id int, cmd protocol.LineCommand) (protocol.Request, error) {
	req := protocol.Request{ID: id, Action: cmd.Name}
	if action, ok := legacyActions[cmd.Name]; ok {
		req.Action = action
		param, err := legacyParam(cmd)
		if err != nil {
			return protocol.Request{}, err
		}
		req.Param = param
		return req, nil
	}

	rest := strings.TrimSpace(cmd.Rest)
	switch {
	case rest == "":
	case json.Valid([]byte(rest)):
		req.Param = json.RawMessage(rest)
	case cmd.Name == bridge.ActionTest || cmd.Name == bridge.ActionOpen:
		raw, err := json.Marshal(rest)
		if err != nil {
			return protocol.Request{}, err
		}
		req.Param = raw
	default:
		return protocol.Request{}, fmt.Errorf("%w: param for %q is not JSON", protocol.ErrMalformedRequest, cmd.Name)
	}
	return req, nil
}

func legacyParam(cmd protocol.LineCommand) (json.RawMessage, error) {
	rest := strings.TrimSpace(cmd.Rest)
	switch cmd.Name {
	case legacyOpenFile:
		return json.Marshal(rest)
	case legacyGetSelectedNode:
		return nil, nil
	case legacyGetBody:
		// Legacy clients send the whole archived position; only its gnx matters.
		if rest == "" {
			return nil, nil
		}
		var ap bridge.ArchivedPosition
		if err := json.Unmarshal([]byte(rest), &ap); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrMalformedRequest, err)
		}
		return json.Marshal(ap.GNX)
	default:
		if rest == "" {
			return nil, nil
		}
		if !json.Valid([]byte(rest)) {
			return nil, fmt.Errorf("%w: param for %q is not JSON", protocol.ErrMalformedRequest, cmd.Name)
		}
		return json.RawMessage(rest), nil
	}
}

func writeLineResponse(w io.Writer, action string, resp protocol.Response) error {
	if resp.IsError() {
		return writeLine(w, protocol.TagError, map[string]string{"error": resp.Error})
	}
	if action == bridge.ActionOpen {
		return writeLine(w, protocol.TagFileOpened, nil)
	}
	switch resp.Key {
	case protocol.KeyNode, protocol.KeyNodes:
		return writeLine(w, protocol.TagOutline, nodeList(resp.Value))
	case protocol.KeyBodyData:
		return writeLine(w, protocol.TagBody, map[string]any{"body": resp.Value})
	case protocol.KeyBodyLength:
		return writeLine(w, protocol.TagBodyLength, map[string]any{"bodyLength": resp.Value})
	case protocol.KeyPackage:
		return writeLine(w, protocol.TagTest, map[string]any{"package": resp.Value})
	default:
		return writeLine(w, protocol.TagAck, nil)
	}
}

// nodeList always yields a JSON array for outline results.
func nodeList(v any) []bridge.ArchivedPosition {
	switch n := v.(type) {
	case *bridge.ArchivedPosition:
		if n == nil {
			return []bridge.ArchivedPosition{}
		}
		return []bridge.ArchivedPosition{*n}
	case bridge.ArchivedPosition:
		return []bridge.ArchivedPosition{n}
	case []bridge.ArchivedPosition:
		if n == nil {
			return []bridge.ArchivedPosition{}
		}
		return n
	default:
		return []bridge.ArchivedPosition{}
	}
}

func writeError(w io.Writer, err error) error {
	return writeLine(w, protocol.TagError, map[string]string{"error": err.Error()})
}

func writeLine(w io.Writer, tag string, payload any) error {
	line, err := protocol.FormatLine(tag, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}
