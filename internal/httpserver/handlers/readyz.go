package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

const readyCheckTimeout = 2 * time.Second

type componentStatus struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readyzResponse struct {
	Ready      bool                       `json:"ready"`
	Components map[string]componentStatus `json:"components"`
}

// Readyz runs every configured check. Any failing component makes the
// service not ready (503).
func Readyz(d deps.Deps) http.HandlerFunc {
	names := make([]string, 0, len(d.Checks))
	for name := range d.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		resp := readyzResponse{
			Ready:      true,
			Components: make(map[string]componentStatus, len(names)),
		}
		for _, name := range names {
			if err := d.Checks[name](ctx); err != nil {
				d.Logger.Warn("readiness check failed",
					logger.String("component", name),
					logger.Error(err))
				resp.Ready = false
				resp.Components[name] = componentStatus{OK: false, Error: err.Error()}
				continue
			}
			resp.Components[name] = componentStatus{OK: true}
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, d, status, resp)
	}
}
