package ws

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v4"
)

var ErrNoClient = errors.New("ws: no client connected")

var (
	_ WSHub    = (*Hub)(nil)
	_ WSClient = (*BaseClient)(nil)
)

// Client is the websocket transport of one remote runtime.
type Client struct {
	*BaseClient
	Hub        WSHub
	RendererID string
}

func NewClient(hub WSHub, conn *websocket.Conn, rendererID string) *Client {
	return &Client{
		BaseClient: NewBaseClient(conn),
		Hub:        hub,
		RendererID: rendererID,
	}
}

// Send satisfies remote.Sender.
func (c *Client) Send(msg []byte) error {
	return c.Enqueue(msg)
}

// Hub keeps one remote runtime per renderer and the connection currently
// carrying it. A new connection for a renderer replaces the old one.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	runtimes *xsync.Map[string, *remote.Runtime]
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		runtimes: xsync.NewMap[string, *remote.Runtime](),
		logger:   logger,
	}
}

// Add makes rt reachable for connections naming its id.
func (h *Hub) Add(rt *remote.Runtime) {
	h.runtimes.Store(rt.ID(), rt)
}

// Remove forgets the runtime and drops its connection.
func (h *Hub) Remove(rendererID string) {
	h.runtimes.Delete(rendererID)

	h.mu.Lock()
	c := h.clients[rendererID]
	delete(h.clients, rendererID)
	h.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

func (h *Hub) Runtime(rendererID string) (*remote.Runtime, bool) {
	return h.runtimes.Load(rendererID)
}

func (h *Hub) Register(rendererID string, c *Client) {
	h.mu.Lock()
	prev := h.clients[rendererID]
	h.clients[rendererID] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
	if rt, ok := h.runtimes.Load(rendererID); ok {
		rt.SetSender(c)
	}
	h.logger.Debug("ws register", "renderer", rendererID, "replaced", prev != nil)
}

func (h *Hub) Unregister(rendererID string, c *Client) {
	h.mu.Lock()
	cur, ok := h.clients[rendererID]
	if !ok || cur != c {
		h.mu.Unlock()
		c.Close()
		return
	}
	delete(h.clients, rendererID)
	h.mu.Unlock()

	c.Close()
	if rt, ok := h.runtimes.Load(rendererID); ok {
		rt.SetSender(nil)
	}
	h.logger.Debug("ws unregister", "renderer", rendererID)
}

// Push sends data to the renderer's connection without blocking.
func (h *Hub) Push(rendererID string, data []byte) error {
	h.mu.RLock()
	c, ok := h.clients[rendererID]
	h.mu.RUnlock()
	if !ok {
		return ErrNoClient
	}

	if err := c.Enqueue(data); err != nil {
		h.logger.Warn("ws dropped message", "renderer", rendererID, "err", err)
		return err
	}
	return nil
}

// Serve runs the pumps of a freshly upgraded connection for rendererID and
// returns when the connection closes.
func (h *Hub) Serve(rendererID string, conn *websocket.Conn) error {
	rt, ok := h.runtimes.Load(rendererID)
	if !ok {
		conn.Close()
		return ErrNoClient
	}

	c := NewClient(h, conn, rendererID)
	h.Register(rendererID, c)
	defer h.Unregister(rendererID, c)

	go c.WritePump()
	c.ReadPump(func(raw []byte) {
		if err := rt.Receive(raw); err != nil {
			h.logger.Debug("ws bad message", "renderer", rendererID, "err", err)
		}
	})
	return nil
}
