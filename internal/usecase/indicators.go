package usecase

import (
	"context"
	"errors"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	svcache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/source"
	"StockPulse/internal/services/indicators"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

// IndicatorEngine computes full indicator sets from daily history,
// cache-first. A set is always built from the same lookback so cached and
// fresh reads are comparable.
type IndicatorEngine struct {
	agg     domsvc.Aggregator
	cache   *svcache.MarketCache
	metrics domrepo.Metrics
	log     *applogger.Logger
}

var _ domsvc.IndicatorProvider = (*IndicatorEngine)(nil)

// NewIndicatorEngine creates the engine on top of the aggregator.
func NewIndicatorEngine(agg domsvc.Aggregator, cache *svcache.MarketCache, metrics domrepo.Metrics, log *applogger.Logger) *IndicatorEngine {
	return &IndicatorEngine{agg: agg, cache: cache, metrics: metrics, log: log}
}

// GetIndicators returns the indicator set for a symbol, recomputing from
// upstream history when refresh is set or nothing is cached.
func (e *IndicatorEngine) GetIndicators(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error) {
	sym := source.Canonical(symbol)
	if sym == "" {
		return nil, models.NewFailure(models.FailNotFound, "", symbol, "empty symbol")
	}

	if !refresh {
		set, err := e.cache.GetIndicators(ctx, sym)
		switch {
		case err == nil:
			e.metrics.RecordCacheEvent("indicators", "hit")
			return set, nil
		case errors.Is(err, pkgcache.ErrCacheMiss):
			e.metrics.RecordCacheEvent("indicators", "miss")
		default:
			e.metrics.RecordError("cache_read")
		}
	}

	quote, err := e.agg.GetQuote(ctx, sym, refresh)
	if err != nil {
		return nil, err
	}
	series, err := e.agg.GetSeries(ctx, sym, domrepo.DefaultPeriod(), domrepo.DefaultInterval())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	set := indicators.BuildSet(sym, quote.Price, series)
	e.metrics.RecordLatency("indicators_compute", time.Since(start).Seconds())

	if err := e.cache.SetIndicators(ctx, set); err != nil {
		e.log.Warn("indicator cache write failed", applogger.String("symbol", sym), applogger.Error(err))
	}
	return set, nil
}
