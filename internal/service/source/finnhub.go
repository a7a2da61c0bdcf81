package source

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/domain/service"
	pkghttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// FinnhubClient fetches real-time quotes from Finnhub's REST API. The
// free tier allows 60 calls per minute.
type FinnhubClient struct {
	http        *pkghttp.Client
	baseURL     string
	apiKey      string
	minuteLimit int
	guard       service.QuotaGuard
	log         *logger.Logger
}

var _ repository.SourceAdapter = (*FinnhubClient)(nil)

// NewFinnhubClient builds the Finnhub REST adapter.
func NewFinnhubClient(baseURL, apiKey string, minuteLimit int, timeout time.Duration, guard service.QuotaGuard, log *logger.Logger) *FinnhubClient {
	return &FinnhubClient{
		http:        pkghttp.NewClient(timeout),
		baseURL:     baseURL,
		apiKey:      apiKey,
		minuteLimit: minuteLimit,
		guard:       guard,
		log:         log,
	}
}

func (c *FinnhubClient) Name() models.Source { return models.SourceFinnhub }

type fhQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// FetchQuote returns the live snapshot for a symbol. Finnhub answers
// unknown symbols with an all-zero payload rather than an error status.
func (c *FinnhubClient) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	plain := Canonical(symbol)
	if c.apiKey == "" {
		return nil, models.NewFailure(models.FailNoData, models.SourceFinnhub, plain, "api key not configured")
	}
	if !c.guard.Allow(ctx, "finnhub", c.minuteLimit, time.Minute) {
		return nil, models.NewFailure(models.FailBudgetExceeded, models.SourceFinnhub, plain, "minute call budget spent")
	}

	req := pkghttp.Request{
		URL: c.baseURL + "/quote",
		Query: url.Values{
			"symbol": {finnhubSymbol(symbol)},
			"token":  {c.apiKey},
		},
	}
	resp, err := c.http.Get(ctx, req)
	if err != nil {
		return nil, classifyTransport(models.SourceFinnhub, plain, err)
	}
	defer resp.Body.Close()
	if fail := classifyStatus(models.SourceFinnhub, plain, resp.StatusCode); fail != nil {
		return nil, fail
	}

	var out fhQuote
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.Failuref(models.FailMalformed, models.SourceFinnhub, plain, "decode response: %v", err)
	}
	if out.Current <= 0 {
		return nil, models.NewFailure(models.FailNotFound, models.SourceFinnhub, plain, "no data for symbol")
	}

	ts := time.Now()
	if out.Timestamp > 0 {
		ts = time.Unix(out.Timestamp, 0)
	}

	q := &models.Quote{
		Symbol:        plain,
		Price:         round2(out.Current),
		PreviousClose: round2(out.PrevClose),
		Change:        round2(out.Current - out.PrevClose),
		ChangePercent: round2(pctChange(out.Current, out.PrevClose)),
		DayOpen:       round2(out.Open),
		DayHigh:       round2(out.High),
		DayLow:        round2(out.Low),
		Timestamp:     ts,
		Source:        models.SourceFinnhub,
	}
	c.log.Debug("finnhub quote fetched",
		logger.String("symbol", plain),
		logger.Float64("price", q.Price))
	return q, nil
}
