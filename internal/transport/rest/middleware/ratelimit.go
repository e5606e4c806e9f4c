package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"pmtctportal/internal/cache"
)

// RateLimitMiddleware throttles login attempts per client address. Counting
// happens in Redis so the limit holds across replicas; if Redis is down,
// a per-process token bucket takes over rather than letting requests pass
// unmetered.
type RateLimitMiddleware struct {
	limits cache.RateLimitCache
	max    int

	mu       sync.Mutex
	fallback map[string]*rate.Limiter
	perSec   rate.Limit
}

// NewRateLimitMiddleware creates a rate limit middleware allowing max
// requests per window.
func NewRateLimitMiddleware(limits cache.RateLimitCache, max int, windowSeconds float64) *RateLimitMiddleware {
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return &RateLimitMiddleware{
		limits:   limits,
		max:      max,
		fallback: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(float64(max) / windowSeconds),
	}
}

// Limit wraps a handler with the login throttle
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		client := clientIP(r)
		count, err := m.limits.Hit(r.Context(), client)
		if err != nil {
			if !m.allowFallback(client) {
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
		} else if count > int64(m.max) {
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allowFallback(client string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	limiter, ok := m.fallback[client]
	if !ok {
		limiter = rate.NewLimiter(m.perSec, m.max)
		m.fallback[client] = limiter
	}
	return limiter.Allow()
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
