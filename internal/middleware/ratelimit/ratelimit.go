// Package ratelimit throttles requests per client with a fixed one-minute
// window.
package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	RequestsPerMinute int
	// IdleAfter is how long a client is kept after its last request.
	IdleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, IdleAfter: 10 * time.Minute}
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   int
	idle    time.Duration
	now     func() time.Time
	hits    atomic.Int64
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.IdleAfter <= 0 {
		config.IdleAfter = def.IdleAfter
	}
	return &Limiter{
		clients: make(map[string]*clientInfo),
		limit:   config.RequestsPerMinute,
		idle:    config.IdleAfter,
		now:     time.Now,
	}
}

// Allow reports whether key may make another request in the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok || now.Sub(c.windowStart) >= time.Minute {
		l.clients[key] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return true
	}
	c.lastRequest = now
	c.requests++
	if c.requests > l.limit {
		l.hits.Add(1)
		return false
	}
	return true
}

// CleanExpired forgets idle clients and returns how many were dropped.
// It lets a cache.Manager sweep the limiter with the session cache.
func (l *Limiter) CleanExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for key, c := range l.clients {
		if c.lastRequest.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

type Metrics struct {
	Rejected    int64 `json:"rejected"`
	ClientCount int   `json:"clients"`
}

func (l *Limiter) GetMetrics() Metrics {
	l.mu.Lock()
	n := len(l.clients)
	l.mu.Unlock()
	return Metrics{Rejected: l.hits.Load(), ClientCount: n}
}

// Middleware limits requests whose method is not safe (GET, HEAD, OPTIONS).
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ip := extractIP(r)
			if !l.Allow(ip) {
				slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", ip, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"status":"error","message":"rate limit exceeded","code":429}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
