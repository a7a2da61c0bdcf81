package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	pkghttp "StockPulse/pkg/http"
	"StockPulse/pkg/logger"
)

// Yahoo rejects the default Go user agent.
const yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// YahooClient fetches quotes and OHLCV history from Yahoo's chart API.
// It is the primary provider and the only one that serves history.
type YahooClient struct {
	http    *pkghttp.Client
	baseURL string
	log     *logger.Logger
}

var (
	_ repository.SourceAdapter = (*YahooClient)(nil)
	_ repository.SeriesSource  = (*YahooClient)(nil)
)

// NewYahooClient builds the Yahoo adapter against the given chart API base.
func NewYahooClient(baseURL string, timeout time.Duration, log *logger.Logger) *YahooClient {
	return &YahooClient{
		http:    pkghttp.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (c *YahooClient) Name() models.Source { return models.SourceYahoo }

type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooChartError   `json:"error"`
	} `json:"chart"`
}

type yahooChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta       yahooMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []yahooOHLCV `json:"quote"`
	} `json:"indicators"`
}

// yahooMeta declares every field the quote mapping reads. Fields Yahoo
// omits for some listings decode to zero, which downstream treats as
// "not provided".
type yahooMeta struct {
	Symbol                  string  `json:"symbol"`
	LongName                string  `json:"longName"`
	ShortName               string  `json:"shortName"`
	RegularMarketPrice      float64 `json:"regularMarketPrice"`
	PreviousClose           float64 `json:"previousClose"`
	ChartPreviousClose      float64 `json:"chartPreviousClose"`
	RegularMarketDayHigh    float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow     float64 `json:"regularMarketDayLow"`
	RegularMarketVolume     int64   `json:"regularMarketVolume"`
	AverageDailyVolume10Day int64   `json:"averageDailyVolume10Day"`
	FiftyTwoWeekHigh        float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow         float64 `json:"fiftyTwoWeekLow"`
	TrailingPE              float64 `json:"trailingPE"`
}

type yahooOHLCV struct {
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []int64   `json:"volume"`
}

// FetchQuote returns the live snapshot for a symbol. The one-day chart
// request carries everything the quote needs in its meta block.
func (c *YahooClient) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	plain := Canonical(symbol)
	result, fail := c.fetchChart(ctx, plain, url.Values{
		"range":    {"1d"},
		"interval": {"1d"},
		"region":   {"IN"},
	})
	if fail != nil {
		return nil, fail
	}

	meta := result.Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, models.NewFailure(models.FailInvalidPrice, models.SourceYahoo, plain, "non-positive price")
	}

	prev := meta.PreviousClose
	if prev == 0 {
		prev = meta.ChartPreviousClose
	}
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	var dayOpen float64
	// The meta block has no session open; take it from today's bar.
	if len(result.Indicators.Quote) > 0 {
		if open := result.Indicators.Quote[0].Open; len(open) > 0 {
			dayOpen = open[len(open)-1]
		}
	}

	q := &models.Quote{
		Symbol:        plain,
		CompanyName:   name,
		Price:         round2(meta.RegularMarketPrice),
		PreviousClose: round2(prev),
		Change:        round2(meta.RegularMarketPrice - prev),
		ChangePercent: round2(pctChange(meta.RegularMarketPrice, prev)),
		DayOpen:       round2(dayOpen),
		DayHigh:       round2(meta.RegularMarketDayHigh),
		DayLow:        round2(meta.RegularMarketDayLow),
		Volume:        meta.RegularMarketVolume,
		AvgVolume:     meta.AverageDailyVolume10Day,
		Week52High:    round2(meta.FiftyTwoWeekHigh),
		Week52Low:     round2(meta.FiftyTwoWeekLow),
		PERatio:       round2(meta.TrailingPE),
		Timestamp:     time.Now(),
		Source:        models.SourceYahoo,
	}
	c.log.Debug("yahoo quote fetched",
		logger.String("symbol", plain),
		logger.Float64("price", q.Price))
	return q, nil
}

// FetchSeries returns OHLCV history. Rows Yahoo nulls out (halts, missing
// sessions) are dropped rather than passed through as zero closes.
func (c *YahooClient) FetchSeries(ctx context.Context, symbol string, period repository.Period, interval repository.Interval) (*models.Series, error) {
	plain := Canonical(symbol)
	result, fail := c.fetchChart(ctx, plain, url.Values{
		"range":    {string(period)},
		"interval": {string(interval)},
		"region":   {"IN"},
	})
	if fail != nil {
		return nil, fail
	}
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, models.NewFailure(models.FailNoData, models.SourceYahoo, plain, "no history returned")
	}

	ohlcv := result.Indicators.Quote[0]
	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := models.Bar{Time: time.Unix(ts, 0)}
		if i < len(ohlcv.Open) {
			bar.Open = ohlcv.Open[i]
		}
		if i < len(ohlcv.High) {
			bar.High = ohlcv.High[i]
		}
		if i < len(ohlcv.Low) {
			bar.Low = ohlcv.Low[i]
		}
		if i < len(ohlcv.Close) {
			bar.Close = ohlcv.Close[i]
		}
		if i < len(ohlcv.Volume) {
			bar.Volume = ohlcv.Volume[i]
		}
		if bar.Close <= 0 {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, models.NewFailure(models.FailNoData, models.SourceYahoo, plain, "no usable bars")
	}

	c.log.Debug("yahoo series fetched",
		logger.String("symbol", plain),
		logger.String("period", string(period)),
		logger.Int("bars", len(bars)))
	return &models.Series{
		Symbol:   plain,
		Period:   string(period),
		Interval: string(interval),
		Bars:     bars,
	}, nil
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol string, params url.Values) (*yahooChartResult, *models.Failure) {
	req := pkghttp.Request{
		URL:     fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(yahooSymbol(symbol))),
		Headers: map[string]string{"User-Agent": yahooUserAgent},
		Query:   params,
	}

	resp, err := c.http.Get(ctx, req)
	if err != nil {
		return nil, classifyTransport(models.SourceYahoo, symbol, err)
	}
	defer resp.Body.Close()

	if fail := classifyStatus(models.SourceYahoo, symbol, resp.StatusCode); fail != nil {
		return nil, fail
	}

	var out yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.Failuref(models.FailMalformed, models.SourceYahoo, symbol, "decode chart response: %v", err)
	}
	if out.Chart.Error != nil {
		return nil, models.Failuref(models.FailNotFound, models.SourceYahoo, symbol, "%s: %s", out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 {
		return nil, models.NewFailure(models.FailNoData, models.SourceYahoo, symbol, "empty chart result")
	}
	return &out.Chart.Result[0], nil
}
