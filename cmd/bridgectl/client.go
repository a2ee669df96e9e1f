package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/danmuck/leobridge/internal/protocol"
)

const ioTimeout = 10 * time.Second

// envelopeConn moves one JSON envelope at a time.
type envelopeConn interface {
	WriteEnvelope(payload []byte) error
	ReadEnvelope() ([]byte, error)
	Close() error
}

type tcpConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialTCP(addr string) (*tcpConn, error) {
	conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
	if err != nil {
		return nil, err
	}
	return &tcpConn{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (c *tcpConn) WriteEnvelope(payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(ioTimeout)); err != nil {
		return err
	}
	payload = append(payload, '\n')
	_, err := c.conn.Write(payload)
	return err
}

func (c *tcpConn) ReadEnvelope() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(ioTimeout)); err != nil {
		return nil, err
	}
	return c.r.ReadBytes('\n')
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

type wsConn struct {
	conn *websocket.Conn
}

func dialWS(url string) (*wsConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) WriteEnvelope(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) ReadEnvelope() ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(ioTimeout))
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// client numbers requests after the ready id and matches replies by id.
type client struct {
	conn   envelopeConn
	nextID int
}

func newClient(conn envelopeConn) *client {
	return &client{conn: conn, nextID: protocol.ReadyID}
}

func (c *client) ready() (map[string]any, error) {
	raw, err := c.conn.ReadEnvelope()
	if err != nil {
		return nil, err
	}
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode ready frame: %w", err)
	}
	return env, nil
}

func (c *client) call(action string, param json.RawMessage) ([]byte, error) {
	c.nextID++
	req := protocol.Request{ID: c.nextID, Action: action, Param: param}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := c.conn.WriteEnvelope(payload); err != nil {
		return nil, err
	}
	for {
		raw, err := c.conn.ReadEnvelope()
		if err != nil {
			return nil, err
		}
		if id, ok := protocol.PeekID(raw); ok && id == req.ID {
			return raw, nil
		}
	}
}

func (c *client) print(w io.Writer, action string, param json.RawMessage) error {
	raw, err := c.call(action, param)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", trimNewline(raw))
	return err
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
