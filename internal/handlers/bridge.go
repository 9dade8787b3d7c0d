package handlers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/arko-chat/hybrid/internal/middleware"
	"github.com/arko-chat/hybrid/internal/remote"
	"github.com/arko-chat/hybrid/internal/ws"
)

// HandleBridgeScript serves the script a native shell injects into every
// page it loads for a renderer.
func (h *Handler) HandleBridgeScript(w http.ResponseWriter, r *http.Request) {
	id := h.renderer(r)
	if _, ok := h.hub.Runtime(id); !ok {
		http.NotFound(w, r)
		return
	}

	endpoint := url.URL{
		Scheme:   "ws",
		Host:     r.Host,
		Path:     "/bridge",
		RawQuery: url.Values{middleware.RendererParam: {id}}.Encode(),
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if _, err := io.WriteString(w, ws.Script(endpoint.String())+"\n"+remote.Shim); err != nil {
		h.logger.Debug("bridge script write failed", "err", err)
	}
}
