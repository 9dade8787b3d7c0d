package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/gorilla/websocket"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 1 << 20
)

var ErrSlowClient = errors.New("ws: client send buffer full")

var _ remote.Sender = (*Client)(nil)

type BaseClient struct {
	Conn *websocket.Conn
	Send chan []byte

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewBaseClient(conn *websocket.Conn) *BaseClient {
	return &BaseClient{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

func (c *BaseClient) GetSend() chan []byte {
	return c.Send
}

// Enqueue hands msg to the write pump without blocking.
func (c *BaseClient) Enqueue(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	select {
	case c.Send <- msg:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *BaseClient) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}

func (c *BaseClient) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump delivers every text frame to onMessage until the connection
// fails.
func (c *BaseClient) ReadPump(onMessage func(raw []byte)) {
	defer c.Conn.Close()

	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		onMessage(raw)
	}
}
