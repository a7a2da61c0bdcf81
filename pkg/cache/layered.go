package cache

import (
	"context"
	"time"
)

// LayeredCache fronts Redis with the in-process cache. Reads that hit L2
// are promoted into L1 for a short window; counters and multi-key reads
// always go to Redis because budget state must be shared across processes.
type LayeredCache struct {
	l1 *MemoryCache
	l2 *RedisCache

	// promoteTTL bounds how stale an L1 read can be relative to L2. It
	// must stay well under the quote TTL callers set on L2.
	promoteTTL time.Duration
}

// NewLayeredCache builds the two-level backend over a Redis cache.
func NewLayeredCache(l2 *RedisCache) *LayeredCache {
	return &LayeredCache{
		l1:         NewMemoryCache(),
		l2:         l2,
		promoteTTL: 30 * time.Second,
	}
}

// Set writes through: Redis first so other processes observe the value,
// then the local layer. An L1 write cannot fail.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, value, ttl)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := lc.l2.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, dest, lc.promoteTTL)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	return lc.l2.MGet(ctx, keys...)
}

func (lc *LayeredCache) Increment(ctx context.Context, key string) (int64, error) {
	return lc.l2.Increment(ctx, key)
}

func (lc *LayeredCache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.l2.Expire(ctx, key, ttl)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
