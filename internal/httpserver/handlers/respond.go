package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// duplicateResponse is the 409 body: the error plus where the existing
// bookmark lives.
type duplicateResponse struct {
	Error        string `json:"error"`
	ID           string `json:"id"`
	URL          string `json:"url"`
	ShortURL     string `json:"short_url"`
	FullShortURL string `json:"full_short_url,omitempty"`
}

type bookmarkResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	HashURL      string    `json:"hash_url"`
	ShortCode    string    `json:"short_code"`
	ShortURL     string    `json:"short_url"`
	FullShortURL string    `json:"full_short_url,omitempty"`
	Title        string    `json:"title"`
	Notes        string    `json:"notes"`
	Archived     bool      `json:"archived"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func shortURL(code string) string { return "/" + code }

func fullShortURL(d deps.Deps, code string) string {
	if d.BaseURL == "" {
		return ""
	}
	return d.BaseURL + shortURL(code)
}

func toBookmarkResponse(d deps.Deps, b *domain.Bookmark) bookmarkResponse {
	return bookmarkResponse{
		ID:           b.ID,
		URL:          b.URL,
		HashURL:      b.HashURL,
		ShortCode:    b.ShortCode,
		ShortURL:     shortURL(b.ShortCode),
		FullShortURL: fullShortURL(d, b.ShortCode),
		Title:        b.Title,
		Notes:        b.Notes,
		Archived:     b.Archived,
		Tags:         b.TagNames(),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, status int, msg string) {
	writeJSON(w, d, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to HTTP statuses.
// Unexpected errors are logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if dup, ok := domain.AsDuplicate(err); ok && dup.Existing != nil {
		writeJSON(w, d, http.StatusConflict, duplicateResponse{
			Error:        "bookmark already exists",
			ID:           dup.Existing.ID,
			URL:          dup.Existing.URL,
			ShortURL:     shortURL(dup.Existing.ShortCode),
			FullShortURL: fullShortURL(d, dup.Existing.ShortCode),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, d, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, d, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrShortCodeCollision):
		writeError(w, d, http.StatusConflict, err.Error())
	default:
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		writeError(w, d, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a single JSON object. Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
