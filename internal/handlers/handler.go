package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arko-chat/hybrid/internal/middleware"
	"github.com/arko-chat/hybrid/internal/ws"
)

type Handler struct {
	hub    *ws.Hub
	logger *slog.Logger
}

func New(hub *ws.Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) renderer(r *http.Request) string {
	return middleware.GetRenderer(r.Context())
}

func (h *Handler) serverError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	h.logger.Error("handler error", "path", r.URL.Path, "err", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
