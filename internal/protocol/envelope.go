package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Result keys, one per operation family. Acknowledgements carry no key.
const (
	KeyNode       = "node"
	KeyNodes      = "nodes"
	KeyBodyData   = "bodyData"
	KeyBodyLength = "bodyLength"
	KeyPackage    = "package"
	KeyAck        = ""
)

// ReadyID tags the unsolicited frame sent when a connection is accepted.
const ReadyID = 1

// Request is one client action envelope.
type Request struct {
	ID     int             `json:"id"`
	Action string          `json:"action"`
	Param  json.RawMessage `json:"param,omitempty"`
}

// Response is one reply envelope: {id} plus either error or one result key.
type Response struct {
	ID    int
	Key   string
	Value any
	Error string
}

func Ready(id int) Response {
	return Response{ID: id}
}

func ErrorResponse(id int, err error) Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Response{ID: id, Error: msg}
}

func (r Response) IsError() bool {
	return r.Error != ""
}

// MarshalJSON writes id first, then error or the result key, so frames are
// stable across runs.
func (r Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.Itoa(r.ID))
	switch {
	case r.Error != "":
		msg, err := json.Marshal(r.Error)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"error":`)
		buf.Write(msg)
	case r.Key != KeyAck:
		key, err := json.Marshal(r.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", r.Key, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseRequest decodes one request frame.
func ParseRequest(frame []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		return req, fmt.Errorf("%w: id=%d", ErrMissingAction, req.ID)
	}
	return req, nil
}

// PeekID extracts a numeric id from a frame that failed full parsing, so the
// error reply can still be tagged.
func PeekID(frame []byte) (int, bool) {
	var probe struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(frame, &probe); err != nil || probe.ID == nil {
		return 0, false
	}
	return *probe.ID, true
}

// EncodeResponse marshals r; the result never contains a raw newline.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}
