package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	svcache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/source"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

// MarketAggregator is the single entry point for market data. Reads are
// cache-first; misses walk the source adapters in priority order and the
// first valid quote is written back before it is returned.
type MarketAggregator struct {
	cache   *svcache.MarketCache
	sources []domrepo.SourceAdapter
	series  domrepo.SeriesSource
	metrics domrepo.Metrics
	log     *applogger.Logger
	fanOut  int
	timeout time.Duration
}

var _ domsvc.Aggregator = (*MarketAggregator)(nil)

// NewMarketAggregator wires the fallback chain. The slice order of sources
// is the priority order.
func NewMarketAggregator(
	cache *svcache.MarketCache,
	sources []domrepo.SourceAdapter,
	series domrepo.SeriesSource,
	metrics domrepo.Metrics,
	log *applogger.Logger,
	fanOut int,
	fetchTimeout time.Duration,
) *MarketAggregator {
	if fanOut <= 0 {
		fanOut = 5
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &MarketAggregator{
		cache:   cache,
		sources: sources,
		series:  series,
		metrics: metrics,
		log:     log,
		fanOut:  fanOut,
		timeout: fetchTimeout,
	}
}

// GetQuote returns the current quote for a symbol. With refresh the cached
// quote and its derived indicators are invalidated first so the caller
// always sees upstream state.
func (a *MarketAggregator) GetQuote(ctx context.Context, symbol string, refresh bool) (*models.Quote, error) {
	sym := source.Canonical(symbol)
	if sym == "" {
		return nil, models.NewFailure(models.FailNotFound, "", symbol, "empty symbol")
	}

	if refresh {
		if err := a.cache.DropSymbol(ctx, sym); err != nil {
			a.log.Warn("cache invalidation failed", applogger.String("symbol", sym), applogger.Error(err))
		}
	} else {
		q, err := a.cache.GetQuote(ctx, sym)
		switch {
		case err == nil:
			a.metrics.RecordCacheEvent("quote", "hit")
			return q, nil
		case errors.Is(err, pkgcache.ErrCacheMiss):
			a.metrics.RecordCacheEvent("quote", "miss")
		default:
			a.metrics.RecordError("cache_read")
		}
	}

	fctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	var last *models.Failure
	for _, src := range a.sources {
		q, err := src.FetchQuote(fctx, sym)
		if err == nil && !q.Valid() {
			err = models.NewFailure(models.FailInvalidPrice, src.Name(), sym, "non-positive price")
		}
		if err != nil {
			last = asFailure(err, src.Name(), sym)
			a.metrics.RecordFetch(string(src.Name()), string(last.Code))
			a.log.Warn("source failed",
				applogger.String("symbol", sym),
				applogger.String("source", string(src.Name())),
				applogger.String("code", string(last.Code)),
			)
			continue
		}

		a.metrics.RecordFetch(string(src.Name()), "ok")
		a.metrics.RecordLastPrice(sym, q.Price)
		a.metrics.RecordLatency("quote_fetch", time.Since(start).Seconds())
		if err := a.cache.SetQuote(ctx, q); err != nil {
			a.log.Warn("quote cache write failed", applogger.String("symbol", sym), applogger.Error(err))
		}
		return q, nil
	}

	a.metrics.RecordError("all_sources")
	if last != nil {
		return nil, models.Failuref(models.FailAllSources, "", sym, "every source failed, last: %s", last.Message)
	}
	return nil, models.NewFailure(models.FailAllSources, "", sym, "no sources configured")
}

// GetManyQuotes resolves a batch of symbols. Cached quotes are read in one
// round trip; the rest fan out to the source chain with bounded
// concurrency. The result always carries an entry per distinct symbol.
func (a *MarketAggregator) GetManyQuotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	order := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		sym := source.Canonical(s)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		order = append(order, sym)
	}

	out := make(map[string]models.QuoteResult, len(order))
	cached, err := a.cache.GetQuotes(ctx, order)
	if err != nil {
		a.metrics.RecordError("cache_read")
		cached = nil
	}

	missing := make([]string, 0, len(order))
	for _, sym := range order {
		if q, ok := cached[sym]; ok && q.Valid() {
			a.metrics.RecordCacheEvent("quote", "hit")
			out[sym] = models.QuoteResult{Quote: q}
			continue
		}
		missing = append(missing, sym)
	}
	if len(missing) == 0 {
		return out
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, a.fanOut)
	)
	for _, sym := range missing {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q, err := a.GetQuote(ctx, sym, false)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out[sym] = models.QuoteResult{Fail: asFailure(err, "", sym)}
				return
			}
			out[sym] = models.QuoteResult{Quote: q}
		}(sym)
	}
	wg.Wait()
	return out
}

// GetSeries fetches OHLCV history. History comes from the primary source
// only; there is no fallback chain for series.
func (a *MarketAggregator) GetSeries(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error) {
	sym := source.Canonical(symbol)
	if sym == "" {
		return nil, models.NewFailure(models.FailNotFound, "", symbol, "empty symbol")
	}
	if !domrepo.IsValidPeriod(period) {
		period = domrepo.DefaultPeriod()
	}
	if !domrepo.IsValidInterval(interval) {
		interval = domrepo.DefaultInterval()
	}

	fctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	s, err := a.series.FetchSeries(fctx, sym, period, interval)
	a.metrics.RecordLatency("series_fetch", time.Since(start).Seconds())
	if err != nil {
		fail := asFailure(err, models.SourceYahoo, sym)
		a.metrics.RecordFetch(string(models.SourceYahoo), string(fail.Code))
		return nil, fail
	}
	a.metrics.RecordFetch(string(models.SourceYahoo), "ok")
	return s, nil
}

// ValidateSymbol reports whether any source can serve the symbol.
func (a *MarketAggregator) ValidateSymbol(ctx context.Context, symbol string) bool {
	q, err := a.GetQuote(ctx, symbol, false)
	return err == nil && q.Valid()
}

// asFailure normalizes any error crossing the aggregation boundary into a
// typed failure.
func asFailure(err error, src models.Source, symbol string) *models.Failure {
	var f *models.Failure
	if errors.As(err, &f) {
		return f
	}
	return models.Failuref(models.FailHTTPStatus, src, symbol, "%v", err)
}
