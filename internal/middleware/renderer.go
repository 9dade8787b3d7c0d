package middleware

import (
	"context"
	"net/http"
)

type ctxKey int

const rendererKey ctxKey = iota

// RendererParam is the query parameter naming the renderer a request
// belongs to.
const RendererParam = "renderer"

// Renderer rejects requests that do not name a renderer and stores the id in
// the request context.
func Renderer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.URL.Query().Get(RendererParam)
			if id == "" {
				http.Error(w, "missing renderer", http.StatusBadRequest)
				return
			}
			ctx := context.WithValue(r.Context(), rendererKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRenderer(ctx context.Context) string {
	id, _ := ctx.Value(rendererKey).(string)
	return id
}

// NoCache keeps webviews from holding on to bridge scripts across runs.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
