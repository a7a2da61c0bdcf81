package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	svcache "StockPulse/internal/service/cache"
	pkgcache "StockPulse/pkg/cache"
)

type fakeSource struct {
	name  models.Source
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, symbol string) (*models.Quote, error)
}

func (f *fakeSource) Name() models.Source { return f.name }

func (f *fakeSource) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, symbol)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSeriesSource struct {
	period   domrepo.Period
	interval domrepo.Interval
	err      error
}

func (f *fakeSeriesSource) FetchSeries(_ context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error) {
	f.period, f.interval = period, interval
	if f.err != nil {
		return nil, f.err
	}
	return &models.Series{Symbol: symbol, Period: string(period), Interval: string(interval)}, nil
}

func newTestAggregator(t *testing.T, mc *svcache.MarketCache, sources []domrepo.SourceAdapter, series domrepo.SeriesSource) *MarketAggregator {
	t.Helper()
	return NewMarketAggregator(mc, sources, series, noopMetrics{}, testLogger(t), 2, time.Second)
}

func TestGetQuoteServesCacheFirst(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	if err := mc.SetQuote(ctx, &models.Quote{Symbol: "TCS", Price: 3500}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	src := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return nil, models.NewFailure(models.FailTimeout, models.SourceYahoo, symbol, "unreachable")
	}}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{src}, nil)

	q, err := a.GetQuote(ctx, "tcs", false)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Price != 3500 {
		t.Fatalf("expected cached price, got %v", q.Price)
	}
	if src.callCount() != 0 {
		t.Fatalf("cache hit must not reach a source")
	}
}

func TestGetQuoteFailsOverToNextSource(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	s1 := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return nil, models.NewFailure(models.FailTimeout, models.SourceYahoo, symbol, "deadline")
	}}
	s2 := &fakeSource{name: models.SourceAlphaVantage, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return &models.Quote{Symbol: symbol, Price: 200, Source: models.SourceAlphaVantage}, nil
	}}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{s1, s2}, nil)

	q, err := a.GetQuote(ctx, "TCS", false)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Price != 200 || q.Source != models.SourceAlphaVantage {
		t.Fatalf("expected fallback quote, got %+v", q)
	}
	if s1.callCount() != 1 || s2.callCount() != 1 {
		t.Fatalf("expected both sources consulted once, got %d/%d", s1.callCount(), s2.callCount())
	}

	cached, err := mc.GetQuote(ctx, "TCS")
	if err != nil || cached.Price != 200 {
		t.Fatalf("fetched quote should be cached: %v %+v", err, cached)
	}
}

func TestGetQuoteRejectsNonPositivePrice(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	s1 := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return &models.Quote{Symbol: symbol, Price: 0}, nil
	}}
	s2 := &fakeSource{name: models.SourceFinnhub, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return &models.Quote{Symbol: symbol, Price: 150}, nil
	}}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{s1, s2}, nil)

	q, err := a.GetQuote(ctx, "TCS", false)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Price != 150 {
		t.Fatalf("zero-price quote should be skipped, got %+v", q)
	}
}

func TestGetQuoteAllSourcesFail(t *testing.T) {
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	fail := func(_ context.Context, symbol string) (*models.Quote, error) {
		return nil, models.NewFailure(models.FailHTTPStatus, models.SourceYahoo, symbol, "503")
	}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{
		&fakeSource{name: models.SourceYahoo, fn: fail},
		&fakeSource{name: models.SourceAlphaVantage, fn: fail},
	}, nil)

	_, err := a.GetQuote(context.Background(), "TCS", false)
	var f *models.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected typed failure, got %v", err)
	}
	if f.Code != models.FailAllSources || f.Symbol != "TCS" {
		t.Fatalf("unexpected failure %+v", f)
	}
}

func TestGetQuoteEmptySymbol(t *testing.T) {
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	a := newTestAggregator(t, mc, nil, nil)

	_, err := a.GetQuote(context.Background(), "   ", false)
	var f *models.Failure
	if !errors.As(err, &f) || f.Code != models.FailNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestGetQuoteRefreshInvalidatesDerivedState(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	if err := mc.SetQuote(ctx, &models.Quote{Symbol: "TCS", Price: 100}); err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	if err := mc.SetIndicators(ctx, &models.IndicatorSet{Symbol: "TCS", Price: 100}); err != nil {
		t.Fatalf("seed indicators: %v", err)
	}
	src := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return &models.Quote{Symbol: symbol, Price: 200}, nil
	}}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{src}, nil)

	q, err := a.GetQuote(ctx, "TCS", true)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if q.Price != 200 || src.callCount() != 1 {
		t.Fatalf("refresh must reach the source, got %+v calls=%d", q, src.callCount())
	}
	if _, err := mc.GetIndicators(ctx, "TCS"); !errors.Is(err, pkgcache.ErrCacheMiss) {
		t.Fatalf("stale indicators should be dropped, got %v", err)
	}
	if cached, err := mc.GetQuote(ctx, "TCS"); err != nil || cached.Price != 200 {
		t.Fatalf("refreshed quote should be cached: %v %+v", err, cached)
	}
}

func TestGetManyQuotesMixesCacheAndFetch(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	if err := mc.SetQuote(ctx, &models.Quote{Symbol: "TCS", Price: 3500}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	src := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		if symbol == "INFY" {
			return &models.Quote{Symbol: symbol, Price: 1500}, nil
		}
		return nil, models.NewFailure(models.FailHTTPStatus, models.SourceYahoo, symbol, "503")
	}}
	a := newTestAggregator(t, mc, []domrepo.SourceAdapter{src}, nil)

	out := a.GetManyQuotes(ctx, []string{"tcs", "TCS", "infosys", "RELIANCE"})
	if len(out) != 3 {
		t.Fatalf("expected one entry per distinct symbol, got %v", out)
	}
	if res := out["TCS"]; !res.OK() || res.Quote.Price != 3500 {
		t.Fatalf("TCS should come from cache: %+v", res)
	}
	if res := out["INFY"]; !res.OK() || res.Quote.Price != 1500 {
		t.Fatalf("INFY should be fetched: %+v", res)
	}
	if res := out["RELIANCE"]; res.OK() || res.Fail == nil {
		t.Fatalf("RELIANCE should carry its failure: %+v", res)
	}
	if src.callCount() != 2 {
		t.Fatalf("only the cache misses should reach the source, got %d calls", src.callCount())
	}
}

func TestGetSeriesNormalizesPeriodAndInterval(t *testing.T) {
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	fs := &fakeSeriesSource{}
	a := newTestAggregator(t, mc, nil, fs)

	s, err := a.GetSeries(context.Background(), "tcs", "bogus", "nope")
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	if s.Symbol != "TCS" {
		t.Fatalf("expected canonical symbol, got %q", s.Symbol)
	}
	if fs.period != domrepo.Period3Mo || fs.interval != domrepo.Interval1D {
		t.Fatalf("expected defaults, got %s/%s", fs.period, fs.interval)
	}

	if _, err := a.GetSeries(context.Background(), "TCS", domrepo.Period1Y, domrepo.Interval1Wk); err != nil {
		t.Fatalf("get series: %v", err)
	}
	if fs.period != domrepo.Period1Y || fs.interval != domrepo.Interval1Wk {
		t.Fatalf("valid period and interval must pass through, got %s/%s", fs.period, fs.interval)
	}
}

func TestGetSeriesWrapsPlainErrors(t *testing.T) {
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	fs := &fakeSeriesSource{err: errors.New("connection reset")}
	a := newTestAggregator(t, mc, nil, fs)

	_, err := a.GetSeries(context.Background(), "TCS", domrepo.Period3Mo, domrepo.Interval1D)
	var f *models.Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected typed failure, got %v", err)
	}
	if f.Code != models.FailHTTPStatus || f.Source != models.SourceYahoo {
		t.Fatalf("unexpected failure %+v", f)
	}
}

func TestValidateSymbol(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	ok := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return &models.Quote{Symbol: symbol, Price: 10}, nil
	}}
	if a := newTestAggregator(t, mc, []domrepo.SourceAdapter{ok}, nil); !a.ValidateSymbol(ctx, "TCS") {
		t.Fatalf("expected valid symbol")
	}

	mc2 := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	bad := &fakeSource{name: models.SourceYahoo, fn: func(_ context.Context, symbol string) (*models.Quote, error) {
		return nil, models.NewFailure(models.FailNotFound, models.SourceYahoo, symbol, "unknown")
	}}
	if a := newTestAggregator(t, mc2, []domrepo.SourceAdapter{bad}, nil); a.ValidateSymbol(ctx, "ZZZZ") {
		t.Fatalf("expected invalid symbol")
	}
}
