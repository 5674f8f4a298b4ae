// Package api declares HTTP contracts and route registration for the
// leaderboard service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/leaderforge/leaderforge/internal/app"
	"github.com/leaderforge/leaderforge/internal/domain/model"
	"github.com/leaderforge/leaderforge/pkg/logger"
)

// Default handler configuration constants.
const (
	defaultLeaderboardLimit = 10
	defaultRateLimitPerMin  = 1000
)

// Service bundles the operations handlers depend on. Using an interface
// keeps the handler layer loosely coupled to the application service.
type Service interface {
	SubmitScore(ctx context.Context, req service.SubmitRequest) (service.SubmitResult, error)
	GetTopPlayers(ctx context.Context, limit int) (service.TopPlayers, error)
	GetPlayerRank(ctx context.Context, playerID string) (service.PlayerRank, error)
	RegisterPlayer(ctx context.Context, displayName string) (model.Player, error)
	GetPlayer(ctx context.Context, playerID string) (model.Player, error)
	GetStats() map[string]interface{}
	Health(ctx context.Context) (storeErr, cacheErr error)
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	svc          Service
	logger       logger.Logger
	defaultLimit int
	ratePerMin   int
	limiter      *ipLimiter
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithDefaultLimit sets the top-N limit used when the query omits one.
func WithDefaultLimit(limit int) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// WithRateLimit sets the per-client request budget per minute. Zero or
// negative disables rate limiting.
func WithRateLimit(perMinute int) ServerOption {
	return func(s *Server) {
		s.ratePerMin = perMinute
	}
}

// WithServerLogger sets a custom logger for the HTTP layer.
func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an API server around the given service.
func NewServer(svc Service, opts ...ServerOption) *Server {
	s := &Server{
		svc:          svc,
		defaultLimit: defaultLeaderboardLimit,
		ratePerMin:   defaultRateLimitPerMin,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	if s.ratePerMin > 0 {
		s.limiter = newIPLimiter(s.ratePerMin)
	}
	return s
}

// Router builds the chi router with all routes and middleware attached.
// The router stays valid until ctx is canceled; cancellation stops the
// rate limiter's bookkeeping goroutine.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()
	r.Use(securityHeaders)
	if s.limiter != nil {
		s.limiter.start(ctx)
		r.Use(s.limiter.middleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/players", metricsHandler("players", s.handleRegisterPlayer))
		r.Method(http.MethodGet, "/players/{playerID}", metricsHandler("player_get", s.handleGetPlayer))
		r.Method(http.MethodPost, "/scores", metricsHandler("scores", s.handleSubmitScore))
		r.Method(http.MethodGet, "/leaderboard/top", metricsHandler("leaderboard_top", s.handleTopPlayers))
		r.Method(http.MethodGet, "/leaderboard/rank/{playerID}", metricsHandler("leaderboard_rank", s.handlePlayerRank))
	})

	r.Method(http.MethodGet, "/health", metricsHandler("health", s.handleHealth))
	r.Method(http.MethodGet, "/stats", metricsHandler("stats", s.handleStats))
	r.Get("/healthz", handleMetrics)

	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
