package socket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// ErrChannelClosed is returned by Push after the channel is closed.
var ErrChannelClosed = errors.New("channel closed")

// Envelope frames every websocket message as {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// emitter is the part of a socket.io connection a channel needs.
type emitter interface {
	ID() string
	Emit(event string, v ...interface{})
}

// SocketIOChannel pushes events over a socket.io connection.
type SocketIOChannel struct {
	conn   emitter
	userID string

	mu     sync.Mutex
	closed bool
}

func NewSocketIOChannel(conn emitter, userID string) *SocketIOChannel {
	return &SocketIOChannel{conn: conn, userID: userID}
}

func (c *SocketIOChannel) UserID() string {
	return c.userID
}

func (c *SocketIOChannel) Push(ctx context.Context, event string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	c.conn.Emit(event, payload)
	return nil
}

func (c *SocketIOChannel) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// WebSocketChannel pushes Envelope frames over a gorilla websocket connection.
// Writes are serialised; gorilla connections allow one concurrent writer.
type WebSocketChannel struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewWebSocketChannel(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketChannel {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &WebSocketChannel{conn: conn, writeTimeout: writeTimeout}
}

func (c *WebSocketChannel) Push(ctx context.Context, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.write(ctx, websocket.TextMessage, frame)
}

func (c *WebSocketChannel) ping() error {
	return c.write(context.Background(), websocket.PingMessage, nil)
}

func (c *WebSocketChannel) write(ctx context.Context, messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Close sends a close frame and closes the connection.
func (c *WebSocketChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
