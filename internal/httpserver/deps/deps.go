package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/bookmarks"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

// Check reports whether a backing component is usable.
type Check func(ctx context.Context) error

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	AllowedHosts   []string           // Host headers allowed to access the server
	AllowedCIDRS   []string           // IPs allowed to access healthz/readyz endpoints
	TrustProxy     bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Bookmarks      *bookmarks.Service // bookmark operations
	BaseURL        string             // public base URL for full_short_url, empty to omit
	MaxImportBytes int64              // body limit for imports
	Checks         map[string]Check   // readiness checks by component name (sqlite, redis)
}

// Now returns the current time using TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
