package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/config"
	"github.com/MrSnakeDoc/linkvault/internal/domain"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
)

func TestOfflineCreatesDatabaseDir(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "nested", "dir", "linkvault.db")}

	a, err := Offline(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Offline() error = %v", err)
	}
	defer func() { _ = a.Close() }()

	res, err := a.Bookmarks().Import(context.Background(), []domain.Record{
		{URL: "https://go.dev/", Tags: []string{}},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Added != 1 {
		t.Errorf("Import() added = %d, want 1", res.Added)
	}
}

func TestNewWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		ListenPort:      ":0",
		ShutdownTimeout: time.Second,
		DBPath:          filepath.Join(t.TempDir(), "linkvault.db"),
		RateLimitBurst:  10,
		RateLimitPerMin: 10,
	}

	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.server == nil {
		t.Error("New() did not build the http server")
	}
	if a.redisClient != nil {
		t.Error("New() connected to redis with no address configured")
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRunRequiresServer(t *testing.T) {
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "linkvault.db")}
	a, err := Offline(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Offline() error = %v", err)
	}
	defer func() { _ = a.Close() }()

	if err := a.Run(); err == nil {
		t.Error("Run() expected error without a server")
	}
}

func TestOpenCacheDisabled(t *testing.T) {
	cache, closeFn, err := OpenCache(context.Background(), &config.Config{}, logger.Nop())
	if err == nil {
		t.Fatal("OpenCache() expected error without a redis address")
	}
	if cache != nil || closeFn != nil {
		t.Error("OpenCache() returned a cache on error")
	}
}
