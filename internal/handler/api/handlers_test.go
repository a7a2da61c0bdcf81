package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	svcache "StockPulse/internal/service/cache"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	return log
}

type stubAgg struct {
	quoteFn  func(ctx context.Context, symbol string, refresh bool) (*models.Quote, error)
	manyFn   func(ctx context.Context, symbols []string) map[string]models.QuoteResult
	seriesFn func(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error)
	validFn  func(ctx context.Context, symbol string) bool
}

func (s *stubAgg) GetQuote(ctx context.Context, symbol string, refresh bool) (*models.Quote, error) {
	return s.quoteFn(ctx, symbol, refresh)
}

func (s *stubAgg) GetManyQuotes(ctx context.Context, symbols []string) map[string]models.QuoteResult {
	return s.manyFn(ctx, symbols)
}

func (s *stubAgg) GetSeries(ctx context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error) {
	return s.seriesFn(ctx, symbol, period, interval)
}

func (s *stubAgg) ValidateSymbol(ctx context.Context, symbol string) bool {
	if s.validFn == nil {
		return true
	}
	return s.validFn(ctx, symbol)
}

type stubInds struct {
	fn func(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error)
}

func (s *stubInds) GetIndicators(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error) {
	if s.fn == nil {
		return &models.IndicatorSet{Symbol: symbol}, nil
	}
	return s.fn(ctx, symbol, refresh)
}

type memAlertStore struct {
	alerts map[string]*models.AlertCondition
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{alerts: make(map[string]*models.AlertCondition)}
}

func (s *memAlertStore) Create(_ context.Context, a *models.AlertCondition) error {
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *memAlertStore) Get(_ context.Context, id string) (*models.AlertCondition, error) {
	a, ok := s.alerts[id]
	if !ok {
		return nil, domrepo.ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memAlertStore) ListActive(_ context.Context) ([]*models.AlertCondition, error) {
	var out []*models.AlertCondition
	for _, a := range s.alerts {
		if a.Live() {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memAlertStore) ListByOwner(_ context.Context, owner string, includeTriggered bool) ([]*models.AlertCondition, error) {
	var out []*models.AlertCondition
	for _, a := range s.alerts {
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

func (s *memAlertStore) MarkTriggered(_ context.Context, id string, observed float64, at time.Time) error {
	a, ok := s.alerts[id]
	if !ok {
		return domrepo.ErrAlertNotFound
	}
	a.Active = false
	a.Triggered = true
	a.LastObserved = observed
	a.TriggeredAt = &at
	return nil
}

func (s *memAlertStore) Delete(_ context.Context, id string) error {
	if _, ok := s.alerts[id]; !ok {
		return domrepo.ErrAlertNotFound
	}
	delete(s.alerts, id)
	return nil
}

type stubSignalStore struct {
	queryFn func(ctx context.Context, q models.SignalQuery) ([]models.Signal, error)
}

func (s *stubSignalStore) Init(context.Context) error                  { return nil }
func (s *stubSignalStore) Append(context.Context, []models.Signal) error { return nil }

func (s *stubSignalStore) Query(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	if s.queryFn == nil {
		return nil, nil
	}
	return s.queryFn(ctx, q)
}

func (s *stubSignalStore) Summarize(context.Context, time.Time, time.Time) (*models.DigestEvent, error) {
	return &models.DigestEvent{}, nil
}

func (s *stubSignalStore) Health(context.Context) error { return nil }
func (s *stubSignalStore) Close() error                 { return nil }

type stubQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.msgType, q.payload = msgType, payload
	return nil
}

type stubMetrics struct{}

func (stubMetrics) RecordFetch(string, string)      {}
func (stubMetrics) RecordCacheEvent(string, string) {}
func (stubMetrics) RecordError(string)              {}
func (stubMetrics) RecordAlertTriggered(string)     {}
func (stubMetrics) RecordSignal(string)             {}
func (stubMetrics) RecordLastPrice(string, float64) {}
func (stubMetrics) RecordLatency(string, float64)   {}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

func TestQuoteEndpoint(t *testing.T) {
	var gotSymbol string
	var gotRefresh bool
	agg := &stubAgg{quoteFn: func(_ context.Context, symbol string, refresh bool) (*models.Quote, error) {
		gotSymbol, gotRefresh = symbol, refresh
		return &models.Quote{Symbol: "TCS", Price: 3500}, nil
	}}
	e := echo.New()
	NewMarketHandler(testLogger(t), agg, &stubInds{}).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/v1/quote/TCS?refresh=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected http code %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var q models.Quote
	if err := json.Unmarshal(env.Data, &q); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if q.Symbol != "TCS" || q.Price != 3500 {
		t.Fatalf("unexpected quote %+v", q)
	}
	if gotSymbol != "TCS" || !gotRefresh {
		t.Fatalf("handler must pass symbol and refresh through, got %q/%v", gotSymbol, gotRefresh)
	}
}

func TestQuoteEndpointMapsFailures(t *testing.T) {
	cases := []struct {
		code models.FailCode
		want int
	}{
		{models.FailNotFound, http.StatusNotFound},
		{models.FailBudgetExceeded, http.StatusTooManyRequests},
		{models.FailTimeout, http.StatusGatewayTimeout},
		{models.FailAllSources, http.StatusBadGateway},
	}
	for _, tc := range cases {
		agg := &stubAgg{quoteFn: func(_ context.Context, symbol string, _ bool) (*models.Quote, error) {
			return nil, models.NewFailure(tc.code, models.SourceYahoo, symbol, "upstream said no")
		}}
		e := echo.New()
		NewMarketHandler(testLogger(t), agg, &stubInds{}).RegisterRoutes(e)

		rec := doRequest(e, http.MethodGet, "/api/v1/quote/TCS", "")
		if env := decodeEnvelope(t, rec); env.Status != tc.want {
			t.Fatalf("%s: expected envelope status %d, got %d", tc.code, tc.want, env.Status)
		}
	}
}

func TestQuotesEndpoint(t *testing.T) {
	agg := &stubAgg{manyFn: func(_ context.Context, symbols []string) map[string]models.QuoteResult {
		out := make(map[string]models.QuoteResult, len(symbols))
		for _, s := range symbols {
			out[strings.ToUpper(s)] = models.QuoteResult{Quote: &models.Quote{Symbol: strings.ToUpper(s), Price: 100}}
		}
		return out
	}}
	e := echo.New()
	NewMarketHandler(testLogger(t), agg, &stubInds{}).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/v1/quotes", `{"symbols":["tcs","sbin"]}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var got map[string]models.QuoteResult
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(got) != 2 || !got["TCS"].OK() {
		t.Fatalf("unexpected results %+v", got)
	}

	// An empty batch never reaches the aggregator.
	rec = doRequest(e, http.MethodPost, "/api/v1/quotes", `{"symbols":[]}`)
	if env := decodeEnvelope(t, rec); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", env.Status)
	}
}

func TestSeriesEndpointWindow(t *testing.T) {
	var gotPeriod domrepo.Period
	var gotInterval domrepo.Interval
	calls := 0
	agg := &stubAgg{seriesFn: func(_ context.Context, symbol string, period domrepo.Period, interval domrepo.Interval) (*models.Series, error) {
		calls++
		gotPeriod, gotInterval = period, interval
		return &models.Series{Symbol: symbol, Period: string(period), Interval: string(interval)}, nil
	}}
	e := echo.New()
	NewMarketHandler(testLogger(t), agg, &stubInds{}).RegisterRoutes(e)

	if env := decodeEnvelope(t, doRequest(e, http.MethodGet, "/api/v1/series/TCS", "")); env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	if gotPeriod != domrepo.Period3Mo || gotInterval != domrepo.Interval1D {
		t.Fatalf("expected default window, got %s/%s", gotPeriod, gotInterval)
	}

	if env := decodeEnvelope(t, doRequest(e, http.MethodGet, "/api/v1/series/TCS?period=1y&interval=1wk", "")); env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	if gotPeriod != domrepo.Period1Y || gotInterval != domrepo.Interval1Wk {
		t.Fatalf("expected explicit window, got %s/%s", gotPeriod, gotInterval)
	}

	rec := doRequest(e, http.MethodGet, "/api/v1/series/TCS?period=fortnight", "")
	if env := decodeEnvelope(t, rec); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", env.Status)
	}
	if calls != 2 {
		t.Fatalf("rejected request must not reach the aggregator, got %d calls", calls)
	}
}

func TestIndicatorsEndpoint(t *testing.T) {
	inds := &stubInds{fn: func(_ context.Context, symbol string, _ bool) (*models.IndicatorSet, error) {
		return &models.IndicatorSet{
			Symbol: "TCS",
			Price:  3500,
			RSI:    &models.RSI{Value: 72.5, Period: 14, Signal: "OVERBOUGHT", Strength: 4},
		}, nil
	}}
	agg := &stubAgg{}
	e := echo.New()
	NewMarketHandler(testLogger(t), agg, inds).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/v1/indicators/TCS", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var set models.IndicatorSet
	if err := json.Unmarshal(env.Data, &set); err != nil {
		t.Fatalf("decode set: %v", err)
	}
	if set.RSI == nil || set.RSI.Value != 72.5 {
		t.Fatalf("unexpected set %+v", set)
	}
}

func TestValidateEndpoint(t *testing.T) {
	var gotSymbol string
	agg := &stubAgg{validFn: func(_ context.Context, symbol string) bool {
		gotSymbol = symbol
		return true
	}}
	e := echo.New()
	NewMarketHandler(testLogger(t), agg, &stubInds{}).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/v1/validate/tcs", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var body struct {
		Symbol string `json:"symbol"`
		Valid  bool   `json:"valid"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Symbol != "TCS" || !body.Valid || gotSymbol != "TCS" {
		t.Fatalf("expected canonical validation, got %+v / %q", body, gotSymbol)
	}
}

func TestAlertEndpoints(t *testing.T) {
	store := newMemAlertStore()
	svc := usecase.NewAlertService(store, &stubAgg{}, testLogger(t))
	e := echo.New()
	NewAlertsHandler(testLogger(t), svc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/v1/alerts",
		`{"owner":"bob","symbol":"infosys","kind":"price_above","target":1600}`)
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusCreated {
		t.Fatalf("expected created, got %d (%s)", env.Status, rec.Body.String())
	}
	var created models.AlertCondition
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode alert: %v", err)
	}
	if created.ID == "" || created.Symbol != "INFY" || !created.Active {
		t.Fatalf("unexpected alert %+v", created)
	}

	// Validation failures never reach the service.
	if env := decodeEnvelope(t, doRequest(e, http.MethodPost, "/api/v1/alerts",
		`{"owner":"bob","symbol":"TCS","kind":"sideways","target":10}`)); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", env.Status)
	}
	if env := decodeEnvelope(t, doRequest(e, http.MethodPost, "/api/v1/alerts",
		`{"owner":"bob","symbol":"TCS","kind":"price_above"}`)); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing target, got %d", env.Status)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/alerts?owner=bob", "")
	env = decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var list struct {
		Rows  []models.AlertCondition `json:"rows"`
		Total int64                   `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Rows) != 1 || list.Rows[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	if rec := doRequest(e, http.MethodDelete, "/api/v1/alerts/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, doRequest(e, http.MethodDelete, "/api/v1/alerts/"+created.ID, "")); env.Status != http.StatusNotFound {
		t.Fatalf("expected 404 on double delete, got %d", env.Status)
	}
}

func TestAlertCreateRejectsUnquotableSymbol(t *testing.T) {
	agg := &stubAgg{validFn: func(context.Context, string) bool { return false }}
	svc := usecase.NewAlertService(newMemAlertStore(), agg, testLogger(t))
	e := echo.New()
	NewAlertsHandler(testLogger(t), svc).RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/v1/alerts",
		`{"owner":"bob","symbol":"ZZZZ","kind":"price_above","target":10}`)
	if env := decodeEnvelope(t, rec); env.Status != http.StatusNotFound {
		t.Fatalf("expected 404 for unquotable symbol, got %d", env.Status)
	}
}

func TestSignalsEndpoint(t *testing.T) {
	var gotQuery models.SignalQuery
	store := &stubSignalStore{queryFn: func(_ context.Context, q models.SignalQuery) ([]models.Signal, error) {
		gotQuery = q
		return []models.Signal{{Symbol: "INFY", Kind: models.SignalRSIOversold, Price: 1500}}, nil
	}}
	query := usecase.NewSignalQueryUseCase(store)
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	scanner := usecase.NewScanner(usecase.ScannerConfig{}, nil, nil, nil, nil, nil, mc, stubMetrics{}, testLogger(t))
	e := echo.New()
	NewSignalsHandler(testLogger(t), query, scanner, &stubQueue{}).RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/v1/signals?symbol=infosys&kind=rsi_oversold", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d (%s)", env.Status, rec.Body.String())
	}
	var res struct {
		Symbol string
		Count  int
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Symbol != "INFY" || res.Count != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotQuery.Symbol != "INFY" || gotQuery.Kind != models.SignalRSIOversold || gotQuery.Limit != 100 {
		t.Fatalf("unexpected store query %+v", gotQuery)
	}

	if env := decodeEnvelope(t, doRequest(e, http.MethodGet, "/api/v1/signals?kind=bogus", "")); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", env.Status)
	}
	if env := decodeEnvelope(t, doRequest(e, http.MethodGet, "/api/v1/signals?from=whenever", "")); env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable from, got %d", env.Status)
	}
}

func TestScannerEndpoints(t *testing.T) {
	ctx := context.Background()
	mc := svcache.NewMarketCache(pkgcache.NewMemoryCache())
	scanner := usecase.NewScanner(usecase.ScannerConfig{}, nil, nil, nil, nil, nil, mc, stubMetrics{}, testLogger(t))
	queue := &stubQueue{}
	query := usecase.NewSignalQueryUseCase(&stubSignalStore{})
	e := echo.New()
	NewSignalsHandler(testLogger(t), query, scanner, queue).RegisterRoutes(e)

	// No sweep has run yet.
	if env := decodeEnvelope(t, doRequest(e, http.MethodGet, "/api/v1/scanner/results", "")); env.Status != http.StatusNotFound {
		t.Fatalf("expected 404 before first sweep, got %d", env.Status)
	}

	sum := &models.ScanSummary{
		SweptAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Symbols: []string{"TCS"},
		Signals: []models.Signal{{Symbol: "TCS", Kind: models.SignalRSIOversold}},
	}
	if err := mc.SetScanSummary(ctx, sum); err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	rec := doRequest(e, http.MethodGet, "/api/v1/scanner/results", "")
	env := decodeEnvelope(t, rec)
	if env.Status != http.StatusOK {
		t.Fatalf("unexpected envelope status %d", env.Status)
	}
	var got models.ScanSummary
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(got.Signals) != 1 || got.Symbols[0] != "TCS" {
		t.Fatalf("unexpected summary %+v", got)
	}

	rec = doRequest(e, http.MethodPost, "/api/v1/scanner/run", `{"symbols":["TCS"],"requested_by":"ops"}`)
	env = decodeEnvelope(t, rec)
	if env.Status != http.StatusAccepted {
		t.Fatalf("expected accepted, got %d (%s)", env.Status, rec.Body.String())
	}
	var job struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.JobID == "" {
		t.Fatalf("expected job id")
	}
	if queue.msgType != usecase.ScanJobType {
		t.Fatalf("expected scan_request message, got %q", queue.msgType)
	}
	req, ok := queue.payload.(usecase.ScanRequest)
	if !ok {
		t.Fatalf("unexpected payload %T", queue.payload)
	}
	if req.ID != job.JobID || req.RequestedBy != "ops" || len(req.Symbols) != 1 {
		t.Fatalf("unexpected job payload %+v", req)
	}
}
