package router

import (
	"github.com/arko-chat/hybrid/internal/handlers"
	"github.com/arko-chat/hybrid/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func New(h *handlers.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Renderer())
		r.Use(middleware.NoCache)

		r.Get("/bridge.js", h.HandleBridgeScript)
		r.Get("/bridge", h.HandleWS)
	})

	r.Get("/", h.HandlePage)
	r.Get("/*", h.HandlePage)

	return r
}
