package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Rate limiter housekeeping constants.
const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleEviction  = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter enforces a per-client request budget keyed on remote IP.
// Idle clients are evicted so the map stays bounded.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perMinute int
	limit     rate.Limit
	burst     int
}

func newIPLimiter(perMinute int) *ipLimiter {
	return &ipLimiter{
		clients:   make(map[string]*clientLimiter),
		perMinute: perMinute,
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute,
	}
}

// start launches the idle-client sweeper; it stops when ctx is canceled.
func (l *ipLimiter) start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := l.limiterFor(clientIP(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.perMinute))
		if !lim.Allow() {
			metrics.RecordRateLimitRejection()
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(lim.Tokens())))
		next.ServeHTTP(w, r)
	})
}

func (l *ipLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.clients[ip]
	if !exists {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (l *ipLimiter) sweep() {
	cutoff := time.Now().Add(-limiterIdleEviction)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}

// clientIP extracts the caller address, honoring X-Forwarded-For from a
// fronting proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
