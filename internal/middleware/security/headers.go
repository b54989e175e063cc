// Package security sets response headers for the JSON API and resolves the
// client address behind trusted proxies.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP            string
	HSTSMaxAge     int
	FrameOptions   string
	ReferrerPolicy string
	// NoStore disables caching of API responses.
	NoStore bool
}

// DefaultHeadersConfig locks responses down for a JSON-only API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:            "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:     31536000,
		FrameOptions:   "DENY",
		ReferrerPolicy: "no-referrer",
		NoStore:        true,
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		if h.config.FrameOptions != "" {
			headers.Set("X-Frame-Options", h.config.FrameOptions)
		}
		if h.config.CSP != "" {
			headers.Set("Content-Security-Policy", h.config.CSP)
		}
		if h.config.ReferrerPolicy != "" {
			headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
		}
		if h.config.NoStore {
			headers.Set("Cache-Control", "no-store")
		}
		// HSTS only means something over TLS.
		if r.TLS != nil && h.config.HSTSMaxAge > 0 {
			headers.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", h.config.HSTSMaxAge))
		}
		next.ServeHTTP(w, r)
	})
}
