// Package store holds the persistence side of the pipeline: a Redis
// result cache with daily usage counters and a sliding-window rate
// limiter, plus a Postgres audit trail. Every operation here is
// best-effort; persistence failures never block an analysis.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/engine"
	"github.com/luansvb/guardinia/pkg/textutil"
)

// Cache fronts Redis for result reuse, usage metrics and rate limiting.
// A nil Cache (or one built over a nil client) disables everything and
// every method degrades to its open state.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	limit  int
	now    func() time.Time
	seq    atomic.Int64
}

// NewCache connects to Redis from configuration. Connection problems are
// reported by the first operation, not here; go-redis dials lazily.
func NewCache(cfg *config.Config) *Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &Cache{client: client, ttl: cfg.CacheTTL, limit: cfg.RateLimitPerMinute, now: time.Now}
}

// NewCacheWithClient wraps an existing client. Used in tests with miniredis.
func NewCacheWithClient(client *redis.Client, ttl time.Duration, limit int) *Cache {
	return &Cache{client: client, ttl: ttl, limit: limit, now: time.Now}
}

func cacheKey(text string) string {
	return "guardinia:result:" + textutil.ContentHash(text)
}

// Lookup returns a previously cached result for semantically identical
// text (same folded content hash), or nil on miss or any Redis error.
func (c *Cache) Lookup(ctx context.Context, text string) *engine.Result {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache_lookup_failed | error=%v", err)
		}
		return nil
	}
	var result engine.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("cache_decode_failed | error=%v", err)
		return nil
	}
	return &result
}

// Save stores a result under the text's content hash for the configured
// TTL. Invalid-input results are not worth caching.
func (c *Cache) Save(ctx context.Context, text string, result *engine.Result) {
	if c == nil || result == nil || result.Invalid {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(text), raw, c.ttl).Err(); err != nil {
		log.Printf("cache_save_failed | error=%v", err)
	}
}

// RecordUsage bumps the daily counters: total analyses, per-color
// breakdown, verifier cost in micro-dollars (Redis counters are
// integers) and cache hits. Keys expire after 45 days.
func (c *Cache) RecordUsage(ctx context.Context, day time.Time, result *engine.Result, costUSD float64, cacheHit bool) {
	if c == nil {
		return
	}
	key := "guardinia:metrics:" + day.UTC().Format("2006-01-02")
	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, "analyses_total", 1)
	if result != nil {
		pipe.HIncrBy(ctx, key, "color:"+result.ColorTag, 1)
		if tier, ok := result.Indicators["verifier_tier"].(string); ok && tier != "" {
			pipe.HIncrBy(ctx, key, "verifier_calls_"+tier, 1)
		}
	}
	if costUSD > 0 {
		pipe.HIncrBy(ctx, key, "verifier_cost_micro_usd", int64(costUSD*1e6))
	}
	if cacheHit {
		pipe.HIncrBy(ctx, key, "cache_hits", 1)
	}
	pipe.Expire(ctx, key, 45*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("usage_record_failed | error=%v", err)
	}
}

// DailyUsage returns the raw counter map for one day.
func (c *Cache) DailyUsage(ctx context.Context, day time.Time) (map[string]string, error) {
	if c == nil {
		return nil, nil
	}
	key := "guardinia:metrics:" + day.UTC().Format("2006-01-02")
	usage, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("store: reading usage %s: %w", key, err)
	}
	return usage, nil
}

// Allow implements a per-sender sliding one-minute window. It fails
// open: if Redis is unreachable the sender is allowed, because dropping
// a scam warning is worse than letting a burst through.
func (c *Cache) Allow(ctx context.Context, sender string) bool {
	if c == nil || c.limit <= 0 {
		return true
	}
	now := c.now()
	key := "guardinia:ratelimit:" + sender
	windowStart := now.Add(-time.Minute).UnixMilli()

	pipe := c.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	count := pipe.ZCard(ctx, key)
	member := fmt.Sprintf("%d:%d", now.UnixNano(), c.seq.Add(1))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("ratelimit_check_failed | sender=%s error=%v", textutil.MaskPhone(sender), err)
		return true
	}
	return count.Val() < int64(c.limit)
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
