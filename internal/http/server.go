// Package http exposes the categorizer as a JSON API.
//
// Every core call is serialized behind one mutex, so user interactions are
// applied one at a time even when requests arrive concurrently.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"burnrate/internal/cache"
	"burnrate/internal/categories"
	applog "burnrate/internal/log"
	"burnrate/internal/middleware/ratelimit"
	"burnrate/internal/middleware/security"
	"burnrate/internal/middleware/trace"
)

const defaultMaxUpload = 10 << 20

type Server struct {
	http.Server

	// mu serializes store mutations and categorization.
	mu       sync.Mutex
	store    *categories.Store
	sessions *cache.LRU[Statement]

	logger    *applog.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	maxUpload int64

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithMaxUpload caps the size of uploaded statements.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithRateLimiter throttles mutating requests per client.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithLogger attaches logger to every request context.
func WithLogger(logger *applog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer wires routes and middleware and returns a ready-to-run server.
func NewServer(addr string, store *categories.Store, sessions *cache.LRU[Statement], opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:     store,
		sessions:  sessions,
		tracer:    trace.NewMiddleware(),
		maxUpload: defaultMaxUpload,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /categories/{name}", s.handleRemoveCategory)
	mux.HandleFunc("GET /categories/{name}/keywords", s.handleListKeywords)
	mux.HandleFunc("POST /categories/{name}/keywords", s.handleAddKeyword)
	mux.HandleFunc("DELETE /categories/{name}/keywords/{keyword}", s.handleRemoveKeyword)

	mux.HandleFunc("POST /statements", s.handleUploadStatement)
	mux.HandleFunc("GET /statements/{id}", s.handleGetStatement)
	mux.HandleFunc("DELETE /statements/{id}", s.handleDeleteStatement)
	mux.HandleFunc("PATCH /statements/{id}/rows/{row}", s.handleRecategorizeRow)
	mux.HandleFunc("POST /statements/{id}/edits", s.handleApplyEdits)
	mux.HandleFunc("GET /statements/{id}/summary", s.handleSummary)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(security.ClientIP)(h)
	}
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	if s.logger != nil {
		h = applog.Middleware(s.logger)(h)
	}
	s.Handler = h
	return s
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"requests": s.tracer.GetMetrics(),
	})
}

// handleReady reports ready once the categories are loaded, which always
// holds after startup; the session count is informational.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":     "ready",
		"categories": len(s.store.Categories()),
		"sessions":   s.sessions.Size(),
	}
	if s.limiter != nil {
		payload["rate_limit"] = s.limiter.GetMetrics()
	}
	respondJSON(w, http.StatusOK, payload)
}
