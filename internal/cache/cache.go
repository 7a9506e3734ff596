package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"

	"discord-antinuke-bot/internal/redis"
)

// Cache provides a multi-layer caching system with L1 (in-memory) and L2 (Redis)
type Cache struct {
	l1           *ristretto.Cache
	l2           *redis.Client
	singleflight singleflight.Group

	l1Hits   atomic.Uint64
	l1Misses atomic.Uint64
	l2Hits   atomic.Uint64
	l2Misses atomic.Uint64
}

// Config for cache initialization
type Config struct {
	L1MaxCost     int64         // Max cost in bytes for L1 cache (default: 10MB)
	L1NumCounters int64         // Number of keys to track frequency (default: 100k)
	DefaultTTL    time.Duration // Default TTL for cache entries
}

// NewCache creates a new multi-layer cache
func NewCache(l2 *redis.Client, cfg Config) (*Cache, error) {
	if cfg.L1MaxCost == 0 {
		cfg.L1MaxCost = 10 << 20 // 10MB default
	}
	if cfg.L1NumCounters == 0 {
		cfg.L1NumCounters = 100000
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}

	l1, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.L1NumCounters,
		MaxCost:     cfg.L1MaxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}

	return &Cache{
		l1: l1,
		l2: l2,
	}, nil
}

// GetString retrieves a string value with L1 -> L2 -> fetch fallback. The
// fetch runs under singleflight so concurrent misses on the same key hit the
// backing store once.
func (c *Cache) GetString(key string, ttl time.Duration, fetch func() (string, error)) (string, error) {
	if val, found := c.l1.Get(key); found {
		c.l1Hits.Add(1)
		if s, ok := val.(string); ok {
			return s, nil
		}
	}
	c.l1Misses.Add(1)

	if c.l2 != nil {
		val, err := c.l2.Get(key)
		if err == nil {
			c.l2Hits.Add(1)
			c.l1.SetWithTTL(key, val, 1, ttl)
			return val, nil
		}
		if redis.IsNil(err) {
			c.l2Misses.Add(1)
		}
	}

	val, err, _ := c.singleflight.Do(key, func() (interface{}, error) {
		return fetch()
	})
	if err != nil {
		return "", err
	}

	s := val.(string)
	c.Set(key, s, ttl)
	return s, nil
}

// Set stores a value in both L1 and L2 caches
func (c *Cache) Set(key string, value string, ttl time.Duration) {
	c.l1.SetWithTTL(key, value, 1, ttl)
	if c.l2 != nil {
		c.l2.Set(key, value, ttl)
	}
}

// Delete removes a key from all cache layers
func (c *Cache) Delete(key string) {
	c.l1.Del(key)
	if c.l2 != nil {
		c.l2.Del(key)
	}
}

// DeletePattern removes every L2 key matching the glob pattern. Ristretto
// cannot iterate keys, so L1 is cleared wholesale; entries repopulate from
// L2 on the next read.
func (c *Cache) DeletePattern(pattern string) error {
	c.l1.Clear()
	if c.l2 == nil {
		return nil
	}
	return c.l2.DelPattern(pattern)
}

// GetMetrics returns cache performance metrics
func (c *Cache) GetMetrics() Metrics {
	l1Metrics := c.l1.Metrics

	l1Total := c.l1Hits.Load() + c.l1Misses.Load()
	l2Total := c.l2Hits.Load() + c.l2Misses.Load()

	var l1HitRate, l2HitRate float64
	if l1Total > 0 {
		l1HitRate = float64(c.l1Hits.Load()) / float64(l1Total)
	}
	if l2Total > 0 {
		l2HitRate = float64(c.l2Hits.Load()) / float64(l2Total)
	}

	return Metrics{
		L1Hits:        c.l1Hits.Load(),
		L1Misses:      c.l1Misses.Load(),
		L1HitRate:     l1HitRate,
		L2Hits:        c.l2Hits.Load(),
		L2Misses:      c.l2Misses.Load(),
		L2HitRate:     l2HitRate,
		L1KeysAdded:   l1Metrics.KeysAdded(),
		L1KeysEvicted: l1Metrics.KeysEvicted(),
	}
}

// Metrics holds cache performance data
type Metrics struct {
	L1Hits        uint64
	L1Misses      uint64
	L1HitRate     float64
	L2Hits        uint64
	L2Misses      uint64
	L2HitRate     float64
	L1KeysAdded   uint64
	L1KeysEvicted uint64
}

// Close gracefully shuts down the cache
func (c *Cache) Close() {
	c.l1.Close()
}
