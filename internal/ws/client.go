package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the part of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one registered connection. gorilla connections support a single
// concurrent writer, so every write goes through mu.
type Client struct {
	conn Conn
	info ConnInfo
	mu   sync.Mutex
}

func NewClient(conn Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

func (c *Client) Info() ConnInfo {
	return c.info
}

func (c *Client) write(messageType int, payload []byte, wait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
	}
	return c.conn.WriteMessage(messageType, payload)
}

func (c *Client) writeText(payload []byte, wait time.Duration) error {
	return c.write(websocket.TextMessage, payload, wait)
}

func (c *Client) ping(wait time.Duration) error {
	return c.write(websocket.PingMessage, nil, wait)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}
