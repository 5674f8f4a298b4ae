// Package app provides the core aggregation and rank-query service that
// implements the dependencies required by the HTTP API.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/leaderforge/leaderforge/internal/adapters/cache"
	"github.com/leaderforge/leaderforge/internal/adapters/repository"
	"github.com/leaderforge/leaderforge/internal/domain/dedupe"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultMaxScore     = 1_000_000
	defaultMaxLimit     = 100
	defaultTopTTL       = 30 * time.Second
	defaultRankTTL      = 60 * time.Second
	defaultDedupeSize   = 500_000
	defaultGameMode     = "solo"
	percentilePrecision = 100 // two decimal digits
)

// Service implements score aggregation, rank queries and cache maintenance.
// All cross-request coordination lives in the store and the cache; the
// service itself holds no mutable leaderboard state.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	cache   cache.Cache
	deduper dedupe.Deduper

	// Configuration
	maxScore   int64
	gameModes  []string
	maxLimit   int
	topTTL     time.Duration
	rankTTL    time.Duration
	dedupeSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the durable store backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache sets the cache backend.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxScore sets the inclusive upper bound for a single submission.
func WithMaxScore(max int64) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxScore = max
		}
	}
}

// WithGameModes sets the accepted mode tags; the first is the default.
func WithGameModes(modes []string) Option {
	return func(s *Service) {
		if len(modes) > 0 {
			s.gameModes = modes
		}
	}
}

// WithMaxLeaderboardLimit caps top-N query limits.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// WithCacheTTLs sets the expiry for top-N and rank snapshots. Top-N entries
// should expire faster than rank entries; they churn more under load.
func WithCacheTTLs(top, rank time.Duration) Option {
	return func(s *Service) {
		if top > 0 && rank > 0 {
			s.topTTL = top
			s.rankTTL = rank
		}
	}
}

// WithDedupeSize sets the size of the idempotency token cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxScore:   defaultMaxScore,
		gameModes:  []string{defaultGameMode, "team"},
		maxLimit:   defaultMaxLimit,
		topTTL:     defaultTopTTL,
		rankTTL:    defaultRankTTL,
		dedupeSize: defaultDedupeSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components that were not injected.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache()
		s.logger.Info(ctx, "using in-memory cache")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int64("maxScore", s.maxScore),
		logger.Int("maxLimit", s.maxLimit),
		logger.Duration("topTTL", s.topTTL),
		logger.Duration("rankTTL", s.rankTTL),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "cache close failed", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"maxScore":   s.maxScore,
		"maxLimit":   s.maxLimit,
		"dedupeSize": s.dedupeSize,
	}

	if s.started {
		if total, err := s.store.Count(ctx); err == nil {
			stats["totalPlayers"] = total
			metrics.UpdateTotalPlayers(total)
		}
		tokens := s.deduper.Size()
		stats["dedupeTokens"] = tokens
		metrics.UpdateDedupeSize(tokens)
	}

	return stats
}

// Health reports reachability of the store and cache backends.
func (s *Service) Health(ctx context.Context) (storeErr, cacheErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, nil
	}
	return s.store.Ping(ctx), s.cache.Ping(ctx)
}
