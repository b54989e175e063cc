package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU evicts the least recently used entry when full and drops entries that
// have not been read or written for ttl. A zero ttl disables expiry.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

type Option[T any] func(*LRU[T])

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRU[T]) { c.now = now }
}

func NewLRU[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and extends its lifetime.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	now := c.now()
	if c.expired(e, now) {
		c.remove(elem)
		return zero, false
	}
	e.expiresAt = c.deadline(now)
	c.order.MoveToFront(elem)
	return e.data, true
}

func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, data: data, expiresAt: c.deadline(c.now())}
	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(e)
	for c.order.Len() > c.maxSize {
		c.remove(c.order.Back())
	}
}

// Update applies fn to the value stored under key while holding the cache
// lock. When fn returns an error the stored value is left as it was.
func (c *LRU[T]) Update(key string, fn func(T) (T, error)) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false, nil
	}
	e := elem.Value.(*entry[T])
	now := c.now()
	if c.expired(e, now) {
		c.remove(elem)
		return zero, false, nil
	}

	next, err := fn(e.data)
	if err != nil {
		return e.data, true, err
	}
	e.data = next
	e.expiresAt = c.deadline(now)
	c.order.MoveToFront(elem)
	return next, true, nil
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// CleanExpired removes expired entries and returns how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if c.expired(elem.Value.(*entry[T]), now) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) expired(e *entry[T], now time.Time) bool {
	return c.ttl > 0 && now.After(e.expiresAt)
}

func (c *LRU[T]) deadline(now time.Time) time.Time {
	return now.Add(c.ttl)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
