package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWS turns the request into the transport of the named renderer's
// script runtime.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := h.renderer(r)
	if _, ok := h.hub.Runtime(id); !ok {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "renderer", id, "err", err)
		return
	}

	if err := h.hub.Serve(id, conn); err != nil {
		h.logger.Debug("ws closed", "renderer", id, "err", err)
	}
}
