// Package dedupe tracks client request tokens for idempotent submissions.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen request tokens so a retried submission is applied
// at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if token was seen and records it if not.
	// Returns true if token was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, token string) bool

	// Unrecord removes a token from the seen list, allowing it to be retried.
	// This should only be used when a submission was marked as seen but failed
	// to be applied (e.g., storage unavailable), so a client retry can succeed.
	Unrecord(ctx context.Context, token string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus an insertion-order list.
// In bounded mode (maxSize > 0) the oldest token is evicted once the map is
// full; in unbounded mode tokens accumulate without limit.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest token, back = newest
	maxSize int        // 0 or negative = unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*list.Element)
	d.order = list.New()

	return d
}

// SeenAndRecord atomically checks if token was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[token]; exists {
		return true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}

	d.seen[token] = d.order.PushBack(token)
	d.size.Add(1)
	return false
}

// Unrecord removes a token from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, token string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem, exists := d.seen[token]
	if !exists {
		return
	}
	d.order.Remove(elem)
	delete(d.seen, token)
	d.size.Add(-1)
}

// evictOldest drops the least recently recorded token.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	token, _ := front.Value.(string)
	d.order.Remove(front)
	delete(d.seen, token)
	d.size.Add(-1)
}

// Size returns the current number of tracked tokens.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
