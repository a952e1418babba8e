package services

import (
	"context"
	"testing"
	"time"

	"tripmate_server/models"
)

func TestMatchCachePutGet(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMatchCache(NewMemoryBackend(), MatchCacheConfig{Now: func() time.Time { return now }})

	if _, ok := cache.Get(ctx, "a:b"); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	behavioral := 80.0
	entry := models.CacheEntry{Score: 72, SubScores: models.SubScores{Personality: 90, Behavioral: &behavioral}}
	if err := cache.Put(ctx, "a:b", entry, 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := cache.Get(ctx, "a:b")
	if !ok {
		t.Fatal("Get() after Put() missed")
	}
	if got.Score != 72 || got.PairKey != "a:b" || got.TTLSeconds != 3600 || !got.ComputedAt.Equal(now) {
		t.Errorf("Get() = %+v", got)
	}
	if got.SubScores.Behavioral == nil || *got.SubScores.Behavioral != 80 {
		t.Errorf("Behavioral = %v, want 80", got.SubScores.Behavioral)
	}

	if err := cache.Invalidate(ctx, "a:b"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := cache.Get(ctx, "a:b"); ok {
		t.Error("Get() after Invalidate() reported a hit")
	}
}

func TestMatchCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	backend := NewMemoryBackend()
	backend.now = func() time.Time { return now }
	cache := NewMatchCache(backend, MatchCacheConfig{})

	if err := cache.Put(ctx, "a:b", models.CacheEntry{Score: 50}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get(ctx, "a:b"); !ok {
		t.Fatal("entry missing before expiry")
	}
	now = now.Add(time.Minute)
	if _, ok := cache.Get(ctx, "a:b"); ok {
		t.Error("entry still present after TTL")
	}
}

// slowBackend blocks reads until the caller gives up.
type slowBackend struct{ brokenBackend }

func (slowBackend) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return nil, false, ctx.Err()
}

func TestMatchCacheTimeoutIsMiss(t *testing.T) {
	cache := NewMatchCache(slowBackend{}, MatchCacheConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, ok := cache.Get(context.Background(), "a:b")
	if ok {
		t.Fatal("slow lookup reported a hit")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("lookup took %v, want close to the 20ms budget", elapsed)
	}
}

func TestMatchCacheBackendErrorIsMiss(t *testing.T) {
	ctx := context.Background()
	cache := NewMatchCache(brokenBackend{}, MatchCacheConfig{})

	if _, ok := cache.Get(ctx, "a:b"); ok {
		t.Error("failing backend reported a hit")
	}
	if err := cache.Put(ctx, "a:b", models.CacheEntry{}, 0); err == nil {
		t.Error("Put() should report backend failures to callers that care")
	}
}

func TestMatchCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	if err := backend.Set(ctx, cacheKeyPrefix+"a:b", []byte("{not json"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := NewMatchCache(backend, MatchCacheConfig{}).Get(ctx, "a:b"); ok {
		t.Error("corrupt entry reported a hit")
	}
}

func TestNilMatchCacheIsDisabled(t *testing.T) {
	var cache *MatchCache
	if _, ok := cache.Get(context.Background(), "a:b"); ok {
		t.Error("nil cache reported a hit")
	}
	if err := cache.Put(context.Background(), "a:b", models.CacheEntry{}, 0); err != nil {
		t.Errorf("nil cache Put() error = %v", err)
	}
	if err := NewMatchCache(nil, MatchCacheConfig{}).Invalidate(context.Background(), "a:b"); err != nil {
		t.Errorf("backendless Invalidate() error = %v", err)
	}
}
