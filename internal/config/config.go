package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline, must cover TitleTimeout

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DBPath         string        // sqlite database file
	BaseURL        string        // optional, used to build full_short_url (ex: https://l.domain.ext)
	FetchTitles    bool          // fetch <title> when a bookmark is created without one
	TitleTimeout   time.Duration // bound on a single title fetch
	MaxImportBytes int64         // max accepted body size for POST /api/import

	// Redis redirect cache (disabled when RedisAddr is empty)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
	CacheTTL              time.Duration // lifetime of a cached redirect

	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict /healthz and /readyz to these IPs/CIDRs
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst  int      // per client IP
	RateLimitPerMin int      // per client IP refill
}

// RedisEnabled reports whether a redirect cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LINKVAULT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LINKVAULT_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("LINKVAULT_REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("LINKVAULT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKVAULT_PRETTY_LOG", true),

		// Storage and bookmarks
		DBPath:         getenv("LINKVAULT_DB_PATH", "linkvault.db"),
		BaseURL:        strings.TrimRight(getenv("LINKVAULT_BASE_URL", ""), "/"),
		FetchTitles:    mustBool("LINKVAULT_FETCH_TITLES", true),
		TitleTimeout:   mustDuration("LINKVAULT_TITLE_TIMEOUT", 5*time.Second),
		MaxImportBytes: int64(getenvInt("LINKVAULT_MAX_IMPORT_BYTES", 10<<20)),

		// Redis settings
		RedisAddr:             getenv("LINKVAULT_REDIS_ADDR", ""),
		RedisUser:             getenv("LINKVAULT_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("LINKVAULT_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("LINKVAULT_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("LINKVAULT_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
		CacheTTL:              mustDuration("LINKVAULT_CACHE_TTL", 24*time.Hour),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("LINKVAULT_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("LINKVAULT_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("LINKVAULT_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("LINKVAULT_RATE_LIMIT_BURST", 30),
		RateLimitPerMin: getenvInt("LINKVAULT_RATE_LIMIT_PER_MIN", 60),
	}

	// Validate Redis password configuration
	if cfg.RedisEnabled() && cfg.RedisPasswordRequired {
		cfg.RedisPassword = requireEnv("LINKVAULT_REDIS_PASSWORD")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
