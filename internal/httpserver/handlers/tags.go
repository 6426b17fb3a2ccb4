package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
)

type tagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Bookmarks.Tags(r.Context())
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}
		out := make([]tagResponse, 0, len(tags))
		for _, t := range tags {
			out = append(out, tagResponse{ID: t.ID, Name: t.Name})
		}
		writeJSON(w, d, http.StatusOK, map[string]any{"tags": out})
	}
}
