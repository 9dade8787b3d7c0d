package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/arko-chat/hybrid/components/assets"
)

// HandlePage serves the bundled example pages.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	body, err := assets.Page(r.URL.Path)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}
