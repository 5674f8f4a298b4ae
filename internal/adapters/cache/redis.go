package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/leaderforge/leaderforge/internal/errs"
	"github.com/leaderforge/leaderforge/pkg/logger"
	"github.com/leaderforge/leaderforge/pkg/metrics"
)

// Default redis client configuration constants.
const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultPoolSize     = 50
	scanBatchSize       = 500
)

// RedisCache implements Cache on a redis backend.
type RedisCache struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedisCache creates a redis-backed cache. The connection is not verified
// here; a dead backend simply turns every operation into a miss, which is the
// contract of this layer.
func NewRedisCache(addr string, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		log: logger.Named("cache"),
	}

	options := &redis.Options{
		Addr:         addr,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		PoolSize:     defaultPoolSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	c.client = redis.NewClient(options)
	return c
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			metrics.RecordCacheError()
			c.log.Debug(ctx, "cache get failed", logger.String("key", key), logger.Error(err))
		}
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.RecordCacheError()
		c.log.Debug(ctx, "cache set failed", logger.String("key", key), logger.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) int {
	if len(keys) == 0 {
		return 0
	}
	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		metrics.RecordCacheError()
		c.log.Debug(ctx, "cache invalidate failed", logger.Error(err))
		return 0
	}
	return int(deleted)
}

// InvalidateByPrefix walks the keyspace with SCAN rather than KEYS so a large
// keyspace never blocks the backend.
func (c *RedisCache) InvalidateByPrefix(ctx context.Context, prefix string) int {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			metrics.RecordCacheError()
			c.log.Debug(ctx, "cache prefix scan failed",
				logger.String("prefix", prefix), logger.Error(err))
			return deleted
		}
		deleted += c.Invalidate(ctx, keys...)
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	const op = "cache.ping"
	if err := c.client.Ping(ctx).Err(); err != nil {
		return errs.WrapKind(op, errs.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
