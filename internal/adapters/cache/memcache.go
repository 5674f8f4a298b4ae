package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Default memory cache configuration constants.
const (
	defaultSweepInterval = 30 * time.Second
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache implements Cache in process memory with TTL expiry. Entries
// expire lazily on read and a background janitor sweeps the rest.
type MemoryCache struct {
	mu            sync.RWMutex
	entries       map[string]memEntry
	sweepInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryCache creates an in-process cache and starts its sweep loop.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries:       make(map[string]memEntry),
		sweepInterval: defaultSweepInterval,
		stopCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.sweepLoop()
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.expired(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	// Copy so callers cannot mutate the cached snapshot.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = memEntry{value: stored, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(ctx context.Context, keys ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for _, key := range keys {
		if _, exists := c.entries[key]; exists {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted
}

func (c *MemoryCache) InvalidateByPrefix(ctx context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted
}

func (c *MemoryCache) Ping(ctx context.Context) error { return nil }

func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

// Len reports the current number of entries, expired or not. Test helper.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
		}
	}
}

var _ Cache = (*MemoryCache)(nil)
