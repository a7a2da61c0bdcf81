package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	return log
}

// fakeAggregator satisfies service.Aggregator with pluggable behavior.
type fakeAggregator struct {
	quoteFn  func(ctx context.Context, symbol string, refresh bool) (*models.Quote, error)
	manyFn   func(ctx context.Context, symbols []string) map[string]models.QuoteResult
	seriesFn func(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error)
	validFn  func(ctx context.Context, symbol string) bool
}

func (f *fakeAggregator) GetQuote(ctx context.Context, symbol string, refresh bool) (*models.Quote, error) {
	if f.quoteFn == nil {
		return nil, models.NewFailure(models.FailNoData, "", symbol, "no quote stubbed")
	}
	return f.quoteFn(ctx, symbol, refresh)
}

func (f *fakeAggregator) GetManyQuotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	if f.manyFn == nil {
		return map[string]models.QuoteResult{}
	}
	return f.manyFn(ctx, symbols)
}

func (f *fakeAggregator) GetSeries(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error) {
	if f.seriesFn == nil {
		return nil, models.NewFailure(models.FailNoData, "", symbol, "no series stubbed")
	}
	return f.seriesFn(ctx, symbol, period, interval)
}

func (f *fakeAggregator) ValidateSymbol(ctx context.Context, symbol string) bool {
	if f.validFn == nil {
		return true
	}
	return f.validFn(ctx, symbol)
}

// fakeIndicators satisfies service.IndicatorProvider and counts calls.
type fakeIndicators struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error)
}

func (f *fakeIndicators) GetIndicators(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn == nil {
		return &models.IndicatorSet{Symbol: symbol}, nil
	}
	return f.fn(ctx, symbol, refresh)
}

func (f *fakeIndicators) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeClock pins the market state for scheduling paths.
type fakeClock struct {
	open bool
	loc  *time.Location
}

func (f *fakeClock) IsOpen(time.Time) bool { return f.open }

func (f *fakeClock) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

// fakeSignalStore records appended batches and serves canned results.
type fakeSignalStore struct {
	mu        sync.Mutex
	appends   [][]models.Signal
	appendErr error
	queryFn   func(ctx context.Context, q models.SignalQuery) ([]models.Signal, error)
	lastQuery models.SignalQuery
	digest    *models.DigestEvent
	digestErr error
}

func (f *fakeSignalStore) Init(context.Context) error { return nil }

func (f *fakeSignalStore) Append(_ context.Context, signals []models.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appends = append(f.appends, signals)
	return nil
}

func (f *fakeSignalStore) Query(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	f.mu.Lock()
	f.lastQuery = q
	f.mu.Unlock()
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(ctx, q)
}

func (f *fakeSignalStore) Summarize(context.Context, time.Time, time.Time) (*models.DigestEvent, error) {
	if f.digestErr != nil {
		return nil, f.digestErr
	}
	if f.digest != nil {
		return f.digest, nil
	}
	return &models.DigestEvent{}, nil
}

func (f *fakeSignalStore) Health(context.Context) error { return nil }

func (f *fakeSignalStore) Close() error { return nil }

// fakePublisher records every published event.
type fakePublisher struct {
	mu      sync.Mutex
	alerts  []*models.AlertTriggerEvent
	batches []*models.ScanBatchEvent
	digests []*models.DigestEvent
	err     error
}

func (f *fakePublisher) PublishAlert(_ context.Context, ev *models.AlertTriggerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, ev)
	return nil
}

func (f *fakePublisher) PublishScanBatch(_ context.Context, ev *models.ScanBatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, ev)
	return nil
}

func (f *fakePublisher) PublishDigest(_ context.Context, ev *models.DigestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.digests = append(f.digests, ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeAlertStore keeps alert conditions in memory.
type fakeAlertStore struct {
	mu      sync.Mutex
	alerts  map[string]*models.AlertCondition
	markErr error
}

func newFakeAlertStore(alerts ...*models.AlertCondition) *fakeAlertStore {
	s := &fakeAlertStore{alerts: make(map[string]*models.AlertCondition)}
	for _, a := range alerts {
		cp := *a
		s.alerts[a.ID] = &cp
	}
	return s
}

func (f *fakeAlertStore) Create(_ context.Context, a *models.AlertCondition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.alerts[a.ID] = &cp
	return nil
}

func (f *fakeAlertStore) Get(_ context.Context, id string) (*models.AlertCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return nil, domrepo.ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAlertStore) ListActive(_ context.Context) ([]*models.AlertCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.AlertCondition, 0, len(f.alerts))
	for _, a := range f.alerts {
		if a.Live() {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) ListByOwner(_ context.Context, owner string, includeTriggered bool) ([]*models.AlertCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AlertCondition
	for _, a := range f.alerts {
		if a.Owner != owner {
			continue
		}
		if !includeTriggered && !a.Live() {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAlertStore) MarkTriggered(_ context.Context, id string, observed float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	a, ok := f.alerts[id]
	if !ok {
		return domrepo.ErrAlertNotFound
	}
	a.Active = false
	a.Triggered = true
	a.LastObserved = observed
	a.TriggeredAt = &at
	return nil
}

func (f *fakeAlertStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alerts[id]; !ok {
		return domrepo.ErrAlertNotFound
	}
	delete(f.alerts, id)
	return nil
}

// noopMetrics satisfies repository.Metrics.
type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)      {}
func (noopMetrics) RecordCacheEvent(string, string) {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordAlertTriggered(string)     {}
func (noopMetrics) RecordSignal(string)             {}
func (noopMetrics) RecordLastPrice(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}
