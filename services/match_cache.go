package services

import (
	"context"
	"fmt"
	"time"

	"tripmate_server/logging"
	"tripmate_server/metrics"
	"tripmate_server/models"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// KVBackend is a best-effort key-value store with per-key expiry.
type KVBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const cacheKeyPrefix = "match-score:"

// MatchCacheConfig configures a MatchCache.
type MatchCacheConfig struct {
	TTL     time.Duration
	Timeout time.Duration
	Now     func() time.Time
}

// MatchCache is a read-through cache of pair scores. Entries are derived data:
// backend failures and slow lookups degrade to a miss and are only logged.
// Profile edits do not invalidate entries, so a score may be up to TTL stale.
type MatchCache struct {
	backend KVBackend
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

func NewMatchCache(backend KVBackend, cfg MatchCacheConfig) *MatchCache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 50 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MatchCache{
		backend: backend,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		now:     cfg.Now,
		log:     logging.Component("match-cache"),
	}
}

// TTL is the default entry lifetime.
func (c *MatchCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for pairKey. Any failure is reported as a miss.
func (c *MatchCache) Get(ctx context.Context, pairKey string) (models.CacheEntry, bool) {
	if c == nil || c.backend == nil {
		return models.CacheEntry{}, false
	}

	type result struct {
		raw   []byte
		found bool
		err   error
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		raw, found, err := c.backend.Get(ctx, cacheKeyPrefix+pairKey)
		done <- result{raw, found, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.log.Warn().Err(res.err).Str("pair_key", pairKey).Msg("⚠️ cache lookup failed, treating as miss")
		return models.CacheEntry{}, false
	}
	if !res.found {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return models.CacheEntry{}, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(res.raw, &entry); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("pair_key", pairKey).Msg("⚠️ corrupt cache entry, treating as miss")
		return models.CacheEntry{}, false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return entry, true
}

// Put stores entry with ttl; ttl <= 0 uses the default.
func (c *MatchCache) Put(ctx context.Context, pairKey string, entry models.CacheEntry, ttl time.Duration) error {
	if c == nil || c.backend == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	entry.PairKey = pairKey
	entry.TTLSeconds = int(ttl / time.Second)
	if entry.ComputedAt.IsZero() {
		entry.ComputedAt = c.now()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.backend.Set(ctx, cacheKeyPrefix+pairKey, raw, ttl); err != nil {
		c.log.Warn().Err(err).Str("pair_key", pairKey).Msg("⚠️ cache write failed")
		return fmt.Errorf("cache put %s: %w", pairKey, err)
	}
	return nil
}

// Invalidate drops the entry for pairKey.
func (c *MatchCache) Invalidate(ctx context.Context, pairKey string) error {
	if c == nil || c.backend == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.backend.Delete(ctx, cacheKeyPrefix+pairKey); err != nil {
		c.log.Warn().Err(err).Str("pair_key", pairKey).Msg("⚠️ cache invalidation failed")
		return fmt.Errorf("cache invalidate %s: %w", pairKey, err)
	}
	return nil
}
