package bridge

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/danmuck/leobridge/internal/outline"
	"github.com/danmuck/leobridge/internal/protocol"
)

const (
	ActionOpen          = "open"
	ActionGetNode       = "get-node"
	ActionGetChildren   = "get-children"
	ActionGetParent     = "get-parent"
	ActionGetSelected   = "get-selected"
	ActionGetBody       = "get-body"
	ActionGetBodyLength = "get-body-length"
	ActionSetBody       = "set-body"
	ActionSetBodyByGNX  = "set-body-by-gnx"
	ActionSetHeadline   = "set-headline"
	ActionSetSelection  = "set-selection"
	ActionExpand        = "expand"
	ActionCollapse      = "collapse"
	ActionTest          = "test"
)

// TestGreeting is the fixed package returned by the test action.
const TestGreeting = "test string from the response package"

// ActionSpec documents one catalogue entry.
type ActionSpec struct {
	Name             string
	ResultKey        string
	RequiresDocument bool
	Description      string
}

// Catalogue is the documented action set, in protocol order.
var Catalogue = []ActionSpec{
	{Name: ActionOpen, ResultKey: protocol.KeyNode, Description: "open a file and return the selected node"},
	{Name: ActionGetNode, ResultKey: protocol.KeyNode, RequiresDocument: true, Description: "re-read one archived position"},
	{Name: ActionGetChildren, ResultKey: protocol.KeyNodes, RequiresDocument: true, Description: "children of a position, or top-level nodes"},
	{Name: ActionGetParent, ResultKey: protocol.KeyNode, RequiresDocument: true, Description: "parent of a position, null at top level"},
	{Name: ActionGetSelected, ResultKey: protocol.KeyNode, RequiresDocument: true, Description: "current selection"},
	{Name: ActionGetBody, ResultKey: protocol.KeyBodyData, RequiresDocument: true, Description: "body text by gnx"},
	{Name: ActionGetBodyLength, ResultKey: protocol.KeyBodyLength, RequiresDocument: true, Description: "body length in characters by gnx"},
	{Name: ActionSetBody, ResultKey: protocol.KeyNode, RequiresDocument: true, Description: "replace the selected node's body"},
	{Name: ActionSetBodyByGNX, ResultKey: protocol.KeyAck, RequiresDocument: true, Description: "replace a body by gnx"},
	{Name: ActionSetHeadline, ResultKey: protocol.KeyNode, RequiresDocument: true, Description: "rename a position's node"},
	{Name: ActionSetSelection, ResultKey: protocol.KeyAck, RequiresDocument: true, Description: "select a position"},
	{Name: ActionExpand, ResultKey: protocol.KeyAck, RequiresDocument: true, Description: "expand a position"},
	{Name: ActionCollapse, ResultKey: protocol.KeyAck, RequiresDocument: true, Description: "collapse a position"},
	{Name: ActionTest, ResultKey: protocol.KeyPackage, Description: "liveness probe"},
}

// Handler executes one action against a session. The returned value is
// placed under the action's result key.
type Handler func(s *Session, param json.RawMessage) (any, error)

func defaultHandlers() map[string]Handler {
	return map[string]Handler{
		ActionOpen:          handleOpen,
		ActionGetNode:       handleGetNode,
		ActionGetChildren:   handleGetChildren,
		ActionGetParent:     handleGetParent,
		ActionGetSelected:   handleGetSelected,
		ActionGetBody:       handleGetBody,
		ActionGetBodyLength: handleGetBodyLength,
		ActionSetBody:       handleSetBody,
		ActionSetBodyByGNX:  handleSetBodyByGNX,
		ActionSetHeadline:   handleSetHeadline,
		ActionSetSelection:  handleSetSelection,
		ActionExpand:        handleExpand,
		ActionCollapse:      handleCollapse,
		ActionTest:          handleTest,
	}
}

func handleOpen(s *Session, param json.RawMessage) (any, error) {
	var path string
	if err := decodeParam(param, &path); err != nil {
		return nil, err
	}
	if err := s.Open(path); err != nil {
		return nil, err
	}
	return s.encodeOrNil(s.doc.Selected())
}

func handleGetNode(s *Session, param json.RawMessage) (any, error) {
	p, ok, err := s.positionParam(param)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing position", ErrInvalidPosition)
	}
	return s.encodeOrNil(p)
}

func handleGetChildren(s *Session, param json.RawMessage) (any, error) {
	p, ok, err := s.positionParam(param)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.codec.EncodeAll(s.doc.TopLevel())
	}
	children, err := s.doc.Children(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return s.codec.EncodeAll(children)
}

func handleGetParent(s *Session, param json.RawMessage) (any, error) {
	p, ok, err := s.positionParam(param)
	if err != nil || !ok {
		return nil, err
	}
	parent, ok, err := s.doc.Parent(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if !ok {
		return nil, nil
	}
	return s.encodeOrNil(parent)
}

func handleGetSelected(s *Session, _ json.RawMessage) (any, error) {
	return s.encodeOrNil(s.doc.Selected())
}

func handleGetBody(s *Session, param json.RawMessage) (any, error) {
	gnx, err := gnxParam(param)
	if err != nil {
		return nil, err
	}
	if gnx == "" {
		return "", nil
	}
	n, err := s.cache.Resolve(gnx)
	if err != nil {
		return nil, err
	}
	return n.Body, nil
}

// handleGetBodyLength answers 0 for anything it cannot resolve.
func handleGetBodyLength(s *Session, param json.RawMessage) (any, error) {
	gnx, err := gnxParam(param)
	if err != nil {
		return nil, err
	}
	if gnx == "" {
		return 0, nil
	}
	n, err := s.cache.Resolve(gnx)
	if err != nil {
		return 0, nil
	}
	return utf8.RuneCountInString(n.Body), nil
}

func handleSetBody(s *Session, param json.RawMessage) (any, error) {
	var in struct {
		Body *string `json:"body"`
	}
	if err := decodeParam(param, &in); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidParam)
	}
	sel := s.doc.Selected()
	if sel.IsZero() {
		return nil, fmt.Errorf("%w: nothing selected", ErrInvalidPosition)
	}
	if err := s.doc.SetBody(sel.GNX, *in.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return s.encodeOrNil(sel)
}

func handleSetBodyByGNX(s *Session, param json.RawMessage) (any, error) {
	var in struct {
		GNX  string  `json:"gnx"`
		Body *string `json:"body"`
	}
	if err := decodeParam(param, &in); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrInvalidParam)
	}
	n, err := s.cache.Resolve(strings.TrimSpace(in.GNX))
	if err != nil {
		return nil, err
	}
	if err := s.doc.SetBody(n.GNX, *in.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownIdentifier, err)
	}
	return nil, nil
}

func handleSetHeadline(s *Session, param json.RawMessage) (any, error) {
	var in struct {
		Node     json.RawMessage `json:"node"`
		Headline *string         `json:"headline"`
	}
	if err := decodeParam(param, &in); err != nil {
		return nil, err
	}
	if in.Headline == nil {
		return nil, fmt.Errorf("%w: missing headline", ErrInvalidParam)
	}
	p, ok, err := s.positionParam(in.Node)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing node", ErrInvalidParam)
	}
	if err := s.doc.SetHeadline(p, *in.Headline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return s.encodeOrNil(p)
}

func handleSetSelection(s *Session, param json.RawMessage) (any, error) {
	return nil, s.withPosition(param, s.doc.Select)
}

func handleExpand(s *Session, param json.RawMessage) (any, error) {
	return nil, s.withPosition(param, s.doc.Expand)
}

func handleCollapse(s *Session, param json.RawMessage) (any, error) {
	return nil, s.withPosition(param, s.doc.Contract)
}

func handleTest(s *Session, param json.RawMessage) (any, error) {
	s.logger.Info().RawJSON("param", nonEmptyJSON(param)).Msg("bridge.test called")
	return TestGreeting, nil
}

// positionParam decodes an optional archived position. ok is false when the
// client sent nothing.
func (s *Session) positionParam(param json.RawMessage) (outline.Position, bool, error) {
	if isAbsent(param) {
		return outline.Position{}, false, nil
	}
	var ap ArchivedPosition
	if err := json.Unmarshal(param, &ap); err != nil {
		return outline.Position{}, false, fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	if strings.TrimSpace(ap.GNX) == "" {
		return outline.Position{}, false, fmt.Errorf("%w: position without gnx", ErrInvalidPosition)
	}
	p, err := s.resolve(ap)
	if err != nil {
		return outline.Position{}, false, err
	}
	return p, true, nil
}

// withPosition applies fn to an optional position; an absent one is a no-op.
func (s *Session) withPosition(param json.RawMessage, fn func(outline.Position) error) error {
	p, ok, err := s.positionParam(param)
	if err != nil || !ok {
		return err
	}
	if err := fn(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nil
}

func gnxParam(param json.RawMessage) (string, error) {
	if isAbsent(param) {
		return "", nil
	}
	var gnx string
	if err := json.Unmarshal(param, &gnx); err != nil {
		return "", fmt.Errorf("%w: gnx must be a string: %v", ErrInvalidParam, err)
	}
	return strings.TrimSpace(gnx), nil
}

func decodeParam(param json.RawMessage, out any) error {
	if isAbsent(param) {
		return fmt.Errorf("%w: missing param", ErrInvalidParam)
	}
	if err := json.Unmarshal(param, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	return nil
}

// isAbsent treats the falsy JSON values a client may send for "no param" as
// absent.
func isAbsent(param json.RawMessage) bool {
	switch string(bytes.TrimSpace(param)) {
	case "", "null", "false", `""`, "{}":
		return true
	default:
		return false
	}
}

func nonEmptyJSON(param json.RawMessage) []byte {
	if len(bytes.TrimSpace(param)) == 0 {
		return []byte("null")
	}
	return param
}
