// Package cache holds short-lived in-memory state, such as uploaded
// statements, with size and idle-time limits.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store of values that may expire.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans a fixed set of caches.
type Manager struct {
	caches []Cleaner
}

func NewManager(caches ...Cleaner) *Manager {
	return &Manager{caches: caches}
}

// CleanAll cleans every managed cache once and returns the number of
// entries removed.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run cleans every interval until ctx is done. It always returns nil so it
// can run inside an errgroup next to the HTTP server.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
