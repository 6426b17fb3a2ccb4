package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/linkvault/internal/bookmarks"
	"github.com/MrSnakeDoc/linkvault/internal/config"
	"github.com/MrSnakeDoc/linkvault/internal/fetcher"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/logger"
	"github.com/MrSnakeDoc/linkvault/internal/redis"
	redisstore "github.com/MrSnakeDoc/linkvault/internal/store/redis"
	"github.com/MrSnakeDoc/linkvault/internal/store/sqlite"
	"github.com/MrSnakeDoc/linkvault/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	store       *sqlite.Store
	redisClient *goredis.Client
	bookmarks   *bookmarks.Service
	server      *httpserver.Server
}

// Offline opens the database and builds the bookmark service without the
// redirect cache, title fetching or the HTTP server. Used by CLI commands.
func Offline(cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		store:     store,
		bookmarks: bookmarks.NewService(store, loggerClient),
	}, nil
}

// New wires everything needed to serve: database, optional redis cache,
// title fetcher and the HTTP server.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("database opened", logger.String("path", cfg.DBPath))

	a := &App{cfg: cfg, logger: loggerClient, store: store}

	checks := map[string]deps.Check{"sqlite": store.Ping}
	var opts []bookmarks.Option

	if cfg.RedisEnabled() {
		// Fail fast: a configured cache that never comes up is a deployment error.
		client, err := connectRedis(ctx, cfg, loggerClient)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.redisClient = client

		cache := redisstore.NewCache(client, cfg.CacheTTL)
		opts = append(opts, bookmarks.WithRedirectCache(cache))
		checks["redis"] = cache.Ping
		loggerClient.Info("redirect cache enabled", logger.Duration("ttl", cfg.CacheTTL))
	} else {
		loggerClient.Info("redis not configured, redirect cache disabled")
	}

	if cfg.FetchTitles {
		opts = append(opts, bookmarks.WithTitleFetcher(fetcher.New(cfg.TitleTimeout)))
	}

	a.bookmarks = bookmarks.NewService(store, loggerClient, opts...)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Bookmarks:      a.bookmarks,
		BaseURL:        cfg.BaseURL,
		MaxImportBytes: cfg.MaxImportBytes,
		Checks:         checks,
	}
	a.server = httpserver.New(cfg, loggerClient, d)

	return a, nil
}

// Bookmarks returns the bookmark service.
func (a *App) Bookmarks() *bookmarks.Service { return a.bookmarks }

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully and
// releases the database and redis connections.
func (a *App) Run() error {
	if a.server == nil {
		return errors.New("app built without an http server")
	}
	defer func() { _ = a.Close() }()

	a.logger.Infof("🚀 Starting LinkVault %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ LinkVault stopped cleanly")
	return nil
}

// Close releases the redis client and the database. Safe to call once
// per App.
func (a *App) Close() error {
	var errs []error
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
			errs = append(errs, err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warnf("failed to close database: %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenCache connects to the redirect cache for the maintenance commands.
// The returned func closes the connection.
func OpenCache(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*redisstore.Cache, func() error, error) {
	if !cfg.RedisEnabled() {
		return nil, nil, errors.New("redirect cache disabled: LINKVAULT_REDIS_ADDR is not set")
	}
	client, err := connectRedis(ctx, cfg, loggerClient)
	if err != nil {
		return nil, nil, err
	}
	return redisstore.NewCache(client, cfg.CacheTTL), client.Close, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*goredis.Client, error) {
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.Connect(ctx, redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func openStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
