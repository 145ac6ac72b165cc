// Package cache memoises multi-store search results in Redis. Concurrent
// identical queries are collapsed into one search, and a circuit breaker
// bypasses the cache while the backend keeps failing.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/json"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/resilience"
)

const keyPrefix = "tm:"

// Backend is the key-value store behind the cache. *redis.Client
// implements it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache over backend. A nil m records into unregistered
// collectors.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	if m == nil {
		m = metrics.New(nil)
	}
	return &QueryCache{
		backend: backend,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			OnStateChange: func(s resilience.State) {
				if s == resilience.StateClosed {
					m.CacheCircuitOpen.Set(0)
				} else {
					m.CacheCircuitOpen.Set(1)
				}
			},
		}),
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) get(ctx context.Context, key string) ([]executor.Hit, bool) {
	var data []byte
	var found bool
	err := c.breaker.Execute(func() error {
		var err error
		data, found, err = c.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if !found {
		c.miss()
		return nil, false
	}
	var hits []executor.Hit
	if err := json.Unmarshal(data, &hits); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	c.metrics.CacheHitsTotal.Inc()
	return hits, true
}

func (c *QueryCache) set(ctx context.Context, key string, hits []executor.Hit) {
	if hits == nil {
		hits = []executor.Hit{}
	}
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	c.metrics.CacheMissesTotal.Inc()
}

// GetOrCompute returns the cached hits for the query, or runs compute and
// caches its result. cached reports whether the result came from the cache.
// contentKey must identify the stores being searched.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	contentKey string,
	line string,
	opts executor.Options,
	compute func() ([]executor.Hit, error),
) (hits []executor.Hit, cached bool, err error) {
	key := Key(contentKey, line, opts)
	if hits, ok := c.get(ctx, key); ok {
		return hits, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		hits, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, hits)
		return hits, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]executor.Hit), false, nil
}

// Invalidate removes every cached result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

type keyMaterial struct {
	Content string           `json:"c"`
	Line    string           `json:"l"`
	Options executor.Options `json:"o"`
}

// Key derives the cache key of a query. The line is used verbatim because
// exact-match exclusion compares it byte for byte.
func Key(contentKey, line string, opts executor.Options) string {
	raw, err := json.Marshal(keyMaterial{Content: contentKey, Line: line, Options: opts})
	if err != nil {
		raw = []byte(fmt.Sprintf("%s\x00%s\x00%+v", contentKey, line, opts))
	}
	return keyPrefix + strconv.FormatUint(xxhash.Sum64(raw), 16)
}
