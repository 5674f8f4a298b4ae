package cache

import (
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisOption applies a configuration option to the redis client.
type RedisOption func(*redis.Options)

// WithRedisDB selects the redis logical database.
func WithRedisDB(db int) RedisOption {
	return func(o *redis.Options) {
		if db >= 0 {
			o.DB = db
		}
	}
}

// WithRedisPoolSize sets the connection pool size.
func WithRedisPoolSize(size int) RedisOption {
	return func(o *redis.Options) {
		if size > 0 {
			o.PoolSize = size
		}
	}
}

// MemoryOption applies a configuration option to the memory cache.
type MemoryOption func(*MemoryCache)

// WithSweepInterval sets how often expired entries are swept out.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		if interval > 0 {
			c.sweepInterval = interval
		}
	}
}
