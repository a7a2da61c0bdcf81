package source

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/domain/service"
	pkghttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// AlphaVantageClient fetches quotes from the GLOBAL_QUOTE endpoint. The
// free tier allows 25 calls per day, so the budget is checked before any
// network round trip and a spent budget fails fast.
type AlphaVantageClient struct {
	http       *pkghttp.Client
	baseURL    string
	apiKey     string
	dailyLimit int
	guard      service.QuotaGuard
	log        *logger.Logger
}

var _ repository.SourceAdapter = (*AlphaVantageClient)(nil)

// NewAlphaVantageClient builds the Alpha Vantage adapter.
func NewAlphaVantageClient(baseURL, apiKey string, dailyLimit int, timeout time.Duration, guard service.QuotaGuard, log *logger.Logger) *AlphaVantageClient {
	return &AlphaVantageClient{
		http:       pkghttp.NewClient(timeout),
		baseURL:    baseURL,
		apiKey:     apiKey,
		dailyLimit: dailyLimit,
		guard:      guard,
		log:        log,
	}
}

func (c *AlphaVantageClient) Name() models.Source { return models.SourceAlphaVantage }

type avQuoteResponse struct {
	GlobalQuote  avGlobalQuote `json:"Global Quote"`
	Note         string        `json:"Note"`
	Information  string        `json:"Information"`
	ErrorMessage string        `json:"Error Message"`
}

type avGlobalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	LatestDay     string `json:"07. latest trading day"`
	PreviousClose string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

// avNumbers parses the stringly-typed numeric fields, treating absent
// fields as zero and keeping the first parse error.
type avNumbers struct {
	err error
}

func (p *avNumbers) float(s string) float64 {
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		p.err = err
		return 0
	}
	return v
}

func (p *avNumbers) int(s string) int64 {
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		p.err = err
		return 0
	}
	return v
}

// FetchQuote returns the latest end-of-day snapshot for a symbol.
func (c *AlphaVantageClient) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	plain := Canonical(symbol)
	if c.apiKey == "" {
		return nil, models.NewFailure(models.FailNoData, models.SourceAlphaVantage, plain, "api key not configured")
	}
	if !c.guard.Allow(ctx, "alphavantage", c.dailyLimit, 24*time.Hour) {
		return nil, models.NewFailure(models.FailBudgetExceeded, models.SourceAlphaVantage, plain, "daily call budget spent")
	}

	req := pkghttp.Request{
		URL: c.baseURL,
		Query: url.Values{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {alphaVantageSymbol(symbol)},
			"apikey":   {c.apiKey},
		},
	}
	resp, err := c.http.Get(ctx, req)
	if err != nil {
		return nil, classifyTransport(models.SourceAlphaVantage, plain, err)
	}
	defer resp.Body.Close()
	if fail := classifyStatus(models.SourceAlphaVantage, plain, resp.StatusCode); fail != nil {
		return nil, fail
	}

	var out avQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.Failuref(models.FailMalformed, models.SourceAlphaVantage, plain, "decode response: %v", err)
	}
	// Throttle notices arrive as 200s with a prose body instead of a quote.
	if out.Note != "" || out.Information != "" {
		return nil, models.NewFailure(models.FailBudgetExceeded, models.SourceAlphaVantage, plain, "provider throttle notice")
	}
	if out.ErrorMessage != "" {
		return nil, models.NewFailure(models.FailNotFound, models.SourceAlphaVantage, plain, out.ErrorMessage)
	}
	gq := out.GlobalQuote
	if gq.Price == "" {
		return nil, models.NewFailure(models.FailNoData, models.SourceAlphaVantage, plain, "empty global quote")
	}

	var p avNumbers
	price := p.float(gq.Price)
	change := p.float(gq.Change)
	changePct := p.float(strings.TrimSuffix(gq.ChangePercent, "%"))
	volume := p.int(gq.Volume)
	dayOpen := p.float(gq.Open)
	dayHigh := p.float(gq.High)
	dayLow := p.float(gq.Low)
	prevClose := p.float(gq.PreviousClose)
	if p.err != nil {
		return nil, models.Failuref(models.FailMalformed, models.SourceAlphaVantage, plain, "parse quote: %v", p.err)
	}
	if price <= 0 {
		return nil, models.NewFailure(models.FailInvalidPrice, models.SourceAlphaVantage, plain, "non-positive price")
	}

	// The free tier serves end-of-day data; stamp the quote with its
	// trading day when the payload names one.
	ts := time.Now()
	if day, err := time.Parse("2006-01-02", gq.LatestDay); err == nil {
		ts = day
	}

	q := &models.Quote{
		Symbol:        plain,
		Price:         round2(price),
		PreviousClose: round2(prevClose),
		Change:        round2(change),
		ChangePercent: round2(changePct),
		DayOpen:       round2(dayOpen),
		DayHigh:       round2(dayHigh),
		DayLow:        round2(dayLow),
		Volume:        volume,
		Timestamp:     ts,
		Source:        models.SourceAlphaVantage,
	}
	c.log.Debug("alphavantage quote fetched",
		logger.String("symbol", plain),
		logger.Float64("price", q.Price))
	return q, nil
}
