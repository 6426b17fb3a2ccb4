package handlers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6}$`)

// Redirect sends the client to the bookmark behind a short code (302).
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "shortCode")
		if !shortCodePattern.MatchString(code) {
			writeError(w, d, http.StatusNotFound, "not found")
			return
		}

		target, err := d.Bookmarks.Resolve(r.Context(), code)
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}

		d.Logger.Debug("redirect",
			logger.String("short_code", code),
			logger.String("url", target))
		http.Redirect(w, r, target, http.StatusFound)
	}
}
