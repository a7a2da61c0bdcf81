package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	mc := NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	return mc
}

func TestKeyJoinsWithColons(t *testing.T) {
	if got := Key("quote", "RELIANCE"); got != "quote:RELIANCE" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("rate", "alphavantage", "day"); got != "rate:alphavantage:day" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestMemorySetGetString(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "hello", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "hello" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemorySetGetStruct(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	in := payload{Symbol: "TCS", Price: 3512.4}
	if err := mc.Set(ctx, "quote:TCS", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out payload
	if err := mc.Get(ctx, "quote:TCS", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}

func TestMemoryMissAndExpiry(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	var s string
	if err := mc.Get(ctx, "absent", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := mc.Set(ctx, "short", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := mc.Get(ctx, "short", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemoryDelete(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)
	if err := mc.Delete(ctx, "a", "b", "never-existed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var s string
	if err := mc.Get(ctx, "a", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryMGetSkipsAbsentAndCounters(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	_ = mc.Set(ctx, "quote:TCS", "100", time.Minute)
	_ = mc.Set(ctx, "quote:INFY", "200", time.Minute)
	if _, err := mc.Increment(ctx, "rate:x:day"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	got, err := mc.MGet(ctx, "quote:TCS", "quote:INFY", "quote:SBIN", "rate:x:day")
	if err != nil {
		t.Fatalf("mget: %v", err)
	}
	if len(got) != 2 || got["quote:TCS"] != "100" || got["quote:INFY"] != "200" {
		t.Fatalf("unexpected mget result %v", got)
	}
}

func TestMemoryIncrementAndExpire(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := mc.Increment(ctx, "rate:finnhub:minute")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if n != want {
			t.Fatalf("expected count %d, got %d", want, n)
		}
	}

	ok, err := mc.Expire(ctx, "rate:finnhub:minute", 10*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("expire: ok=%v err=%v", ok, err)
	}
	time.Sleep(20 * time.Millisecond)

	// The window lapsed, so the counter restarts.
	n, err := mc.Increment(ctx, "rate:finnhub:minute")
	if err != nil {
		t.Fatalf("increment after expiry: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected restarted counter, got %d", n)
	}

	if ok, _ := mc.Expire(ctx, "absent", time.Minute); ok {
		t.Fatalf("expire on absent key must report false")
	}
}

func TestMemoryCounterValueConflicts(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	_ = mc.Set(ctx, "val", "x", time.Minute)
	if _, err := mc.Increment(ctx, "val"); err == nil {
		t.Fatalf("incrementing a value key must fail")
	}

	_, _ = mc.Increment(ctx, "ctr")
	var s string
	if err := mc.Get(ctx, "ctr", &s); err == nil {
		t.Fatalf("reading a counter as a value must fail")
	}
}

func TestLayeredPromotesReads(t *testing.T) {
	// The layered backend needs a live Redis for L2; the write-through and
	// promote behavior over the memory layer is what we can pin here.
	lc := &LayeredCache{l1: NewMemoryCache(), promoteTTL: time.Minute}
	t.Cleanup(func() { _ = lc.l1.Close() })
	ctx := context.Background()

	_ = lc.l1.Set(ctx, "quote:TCS", "cached", time.Minute)
	var got string
	if err := lc.Get(ctx, "quote:TCS", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "cached" {
		t.Fatalf("unexpected value %q", got)
	}
}
