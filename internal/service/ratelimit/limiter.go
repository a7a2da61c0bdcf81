package ratelimit

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/service"
	pkgcache "StockPulse/pkg/cache"
)

// Guard counts calls per subject in fixed windows backed by the shared
// cache, so every process sees the same budget.
type Guard struct {
	store pkgcache.Service
}

var _ service.QuotaGuard = (*Guard)(nil)

func New(store pkgcache.Service) *Guard { return &Guard{store: store} }

// Allow consumes one call for subject and reports whether the window
// budget still holds. The first hit in a window arms its expiry. Counting
// failures let the call through; a cache outage must not stop fetches.
func (g *Guard) Allow(ctx context.Context, subject string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}
	key := fmt.Sprintf("rate:%s:%d", subject, int(window.Seconds()))
	n, err := g.store.Increment(ctx, key)
	if err != nil {
		return true
	}
	if n == 1 {
		if _, err := g.store.Expire(ctx, key, window); err != nil {
			return true
		}
	}
	return n <= int64(limit)
}
