package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
	"github.com/MrSnakeDoc/linkvault/internal/sources/netscape"
)

const defaultMaxImportBytes = 10 << 20

type importResponse struct {
	Added            int `json:"added"`
	Skipped          int `json:"skipped"`
	SkippedInvalid   int `json:"skipped_invalid"`
	SkippedDuplicate int `json:"skipped_duplicate"`
}

// Import reads a Netscape bookmark file from the request body.
func Import(d deps.Deps) http.HandlerFunc {
	limit := d.MaxImportBytes
	if limit <= 0 {
		limit = defaultMaxImportBytes
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, limit)
		records, err := netscape.Parse(body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, d, http.StatusRequestEntityTooLarge, "import file too large")
				return
			}
			writeError(w, d, http.StatusBadRequest, "invalid bookmark file: "+err.Error())
			return
		}

		res, err := d.Bookmarks.Import(r.Context(), records)
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}

		writeJSON(w, d, http.StatusOK, importResponse{
			Added:            res.Added,
			Skipped:          res.Skipped(),
			SkippedInvalid:   res.SkippedInvalid,
			SkippedDuplicate: res.SkippedDuplicate,
		})
	}
}

// Export streams every bookmark as a Netscape bookmark file.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Bookmarks.Export(r.Context())
		if err != nil {
			writeServiceError(w, r, d, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.html"`)
		w.WriteHeader(http.StatusOK)
		if err := netscape.Write(w, records); err != nil {
			d.Logger.Warn("export interrupted", logger.Error(err))
		}
	}
}
