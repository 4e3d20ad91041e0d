package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/luansvb/guardinia/pkg/engine"
)

func newTestCache(t *testing.T, limit int) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCacheWithClient(client, time.Hour, limit)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func sampleResult() *engine.Result {
	return &engine.Result{
		ID:          "test-id",
		StatusLabel: "🟠 ALERTA ALTO",
		ColorTag:    "laranja",
		Confidence:  85,
		TotalScore:  96,
		Reasons:     []string{"🚩 Autoridade institucional falsa"},
		Indicators:  map[string]any{"verifier_tier": "deep"},
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	ctx := context.Background()
	text := "Sou do banco, confirme seus dados"

	if got := cache.Lookup(ctx, text); got != nil {
		t.Fatalf("Lookup before Save = %+v, want nil", got)
	}

	cache.Save(ctx, text, sampleResult())

	got := cache.Lookup(ctx, text)
	if got == nil {
		t.Fatal("Lookup after Save = nil")
	}
	if got.TotalScore != 96 || got.ColorTag != "laranja" {
		t.Errorf("Lookup = score %d color %q, want 96 laranja", got.TotalScore, got.ColorTag)
	}
}

func TestCacheKeyIgnoresCaseAndAccents(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	ctx := context.Background()

	cache.Save(ctx, "URGENTE: transferência agora", sampleResult())

	if got := cache.Lookup(ctx, "urgente: transferencia agora"); got == nil {
		t.Error("Lookup with different casing and accents missed the cache")
	}
}

func TestCacheSkipsInvalidResults(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	ctx := context.Background()
	result := sampleResult()
	result.Invalid = true

	cache.Save(ctx, "???", result)

	if got := cache.Lookup(ctx, "???"); got != nil {
		t.Errorf("invalid result was cached: %+v", got)
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t, 10)
	ctx := context.Background()

	cache.Save(ctx, "expira logo", sampleResult())
	mr.FastForward(2 * time.Hour)

	if got := cache.Lookup(ctx, "expira logo"); got != nil {
		t.Errorf("entry survived past its TTL: %+v", got)
	}
}

func TestRecordUsageCounters(t *testing.T) {
	cache, mr := newTestCache(t, 10)
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	cache.RecordUsage(ctx, day, sampleResult(), 0.0045, false)
	cache.RecordUsage(ctx, day, sampleResult(), 0, true)

	key := "guardinia:metrics:2026-03-14"
	if got := mr.HGet(key, "analyses_total"); got != "2" {
		t.Errorf("analyses_total = %q, want 2", got)
	}
	if got := mr.HGet(key, "color:laranja"); got != "2" {
		t.Errorf("color:laranja = %q, want 2", got)
	}
	if got := mr.HGet(key, "verifier_calls_deep"); got != "2" {
		t.Errorf("verifier_calls_deep = %q, want 2", got)
	}
	if got := mr.HGet(key, "verifier_cost_micro_usd"); got != "4500" {
		t.Errorf("verifier_cost_micro_usd = %q, want 4500", got)
	}
	if got := mr.HGet(key, "cache_hits"); got != "1" {
		t.Errorf("cache_hits = %q, want 1", got)
	}

	usage, err := cache.DailyUsage(ctx, day)
	if err != nil {
		t.Fatalf("DailyUsage: %v", err)
	}
	if usage["analyses_total"] != "2" {
		t.Errorf("DailyUsage analyses_total = %q, want 2", usage["analyses_total"])
	}
}

func TestAllowSlidingWindow(t *testing.T) {
	cache, _ := newTestCache(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !cache.Allow(ctx, "5511999990001") {
			t.Fatalf("request %d denied inside the limit", i+1)
		}
	}
	if cache.Allow(ctx, "5511999990001") {
		t.Error("fourth request in the window was allowed")
	}
	if !cache.Allow(ctx, "5511999990002") {
		t.Error("different sender shares the window")
	}
}

func TestAllowWindowSlides(t *testing.T) {
	cache, _ := newTestCache(t, 2)
	ctx := context.Background()
	base := time.Now()
	cache.now = func() time.Time { return base }

	cache.Allow(ctx, "sender")
	cache.Allow(ctx, "sender")
	if cache.Allow(ctx, "sender") {
		t.Fatal("third request in the window was allowed")
	}

	cache.now = func() time.Time { return base.Add(61 * time.Second) }
	if !cache.Allow(ctx, "sender") {
		t.Error("request denied after the window slid past")
	}
}

func TestAllowFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCacheWithClient(client, time.Hour, 1)
	mr.Close()

	if !cache.Allow(context.Background(), "sender") {
		t.Error("rate limiter blocked while Redis was down")
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	if got := cache.Lookup(ctx, "x"); got != nil {
		t.Errorf("nil cache Lookup = %+v", got)
	}
	cache.Save(ctx, "x", sampleResult())
	cache.RecordUsage(ctx, time.Now(), sampleResult(), 1, false)
	if !cache.Allow(ctx, "x") {
		t.Error("nil cache rate-limited a sender")
	}
	if err := cache.Close(); err != nil {
		t.Errorf("nil cache Close: %v", err)
	}
}

func TestAllowZeroLimitDisablesLimiter(t *testing.T) {
	cache, _ := newTestCache(t, 0)
	for i := 0; i < 20; i++ {
		if !cache.Allow(context.Background(), "sender") {
			t.Fatalf("request %d denied with limiter disabled", i+1)
		}
	}
}
