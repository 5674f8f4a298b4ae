package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/adapters/http/api"
	"github.com/leaderforge/leaderforge/internal/adapters/repository"
	service "github.com/leaderforge/leaderforge/internal/app"
	"github.com/leaderforge/leaderforge/internal/config"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// the custom system metrics updater covers these.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build store", logger.Error(err))
		return
	}

	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithCache(buildCache(ctx, cfg, log)),
		service.WithMaxScore(cfg.MaxScore),
		service.WithGameModes(cfg.GameModes),
		service.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		service.WithCacheTTLs(
			time.Duration(cfg.CacheTTLTopSeconds)*time.Second,
			time.Duration(cfg.CacheTTLRankSeconds)*time.Second,
		),
		service.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc,
		api.WithServerLogger(log.Named("api")),
		api.WithDefaultLimit(cfg.DefaultLeaderboardLimit),
		api.WithRateLimit(cfg.RateLimitPerMinute),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildStore constructs the configured durable store, creating the schema
// for fresh postgres databases.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		store, err := repository.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.CreateTables(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info(ctx, "using postgres store")
		return store, nil
	default:
		log.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(), nil
	}
}

// buildCache constructs the configured cache layer. An unreachable redis
// only degrades performance, so it is reported but not fatal.
func buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) cache.Cache {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		c := cache.NewRedisCache(cfg.RedisAddr, cache.WithRedisDB(cfg.RedisDB))
		if err := c.Ping(ctx); err != nil {
			log.Warn(ctx, "redis unreachable at startup; serving reads from the store until it recovers",
				logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		log.Info(ctx, "using redis cache", logger.String("addr", cfg.RedisAddr))
		return c
	case config.CacheNone:
		log.Info(ctx, "cache disabled")
		return cache.Noop{}
	default:
		log.Info(ctx, "using in-memory cache")
		return cache.NewMemoryCache()
	}
}

// startSystemMetricsUpdater updates process-level metrics periodically.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges periodically.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the player-count and dedupe gauges.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
