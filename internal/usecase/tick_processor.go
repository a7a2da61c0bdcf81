package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
	mid "StockPulse/internal/middleware"
	svcache "StockPulse/internal/service/cache"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

// TickProcessor applies live trades to the cached quote. It only patches
// quotes that are already cached; the stream never fabricates one from a
// tick, because a tick has no session context.
type TickProcessor struct {
	cache *svcache.MarketCache
	log   *applogger.Logger
}

var _ mid.Proc = (*TickProcessor)(nil)

// NewTickProcessor creates the processor.
func NewTickProcessor(cache *svcache.MarketCache, log *applogger.Logger) *TickProcessor {
	return &TickProcessor{cache: cache, log: log}
}

// Process patches the cached quote with the tick's price, recomputing the
// change columns against the quote's own previous close.
func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	q, err := p.cache.GetQuote(ctx, t.Symbol)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil
		}
		return fmt.Errorf("read cached quote: %w", err)
	}

	q.Price = t.Price
	if q.PreviousClose > 0 {
		q.Change = math.Round((t.Price-q.PreviousClose)*100) / 100
		q.ChangePercent = math.Round((t.Price-q.PreviousClose)/q.PreviousClose*100*100) / 100
	}
	q.Timestamp = t.Timestamp
	q.Source = models.SourceFinnhub

	if err := p.cache.SetQuote(ctx, q); err != nil {
		return fmt.Errorf("write patched quote: %w", err)
	}
	p.log.Debug("tick applied",
		applogger.String("symbol", t.Symbol),
		applogger.Float64("price", t.Price),
	)
	return nil
}
