// Package trace assigns request IDs and logs every HTTP request.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	applog "burnrate/internal/log"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

// Middleware handles request tracing and logging
type Middleware struct {
	requests      atomic.Int64
	totalDuration atomic.Int64 // microseconds
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	AverageResponseTime int64 `json:"average_response_us"`
}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// Middleware tags the request with an ID, stores a request-scoped logger
// in the context and logs completion at a level chosen by status code.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		ctx = applog.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "HTTP request started",
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).ToSlice()...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.requests.Add(1)
		m.totalDuration.Add(duration.Microseconds())

		level := slog.LevelInfo
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			level = slog.LevelWarn
		} else if rw.statusCode >= 500 {
			level = slog.LevelError
		}

		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithHTTPResponse(rw.statusCode, duration.Milliseconds())
		logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
	})
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID returns "req_" followed by 16 random hex digits.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	n := m.requests.Load()
	var avg int64
	if n > 0 {
		avg = m.totalDuration.Load() / n
	}
	return Metrics{TotalRequests: n, AverageResponseTime: avg}
}
