package models

import (
	"fmt"
	"time"
)

// Source identifies an upstream market-data provider.
type Source string

const (
	SourceYahoo        Source = "yahoo"
	SourceAlphaVantage Source = "alphavantage"
	SourceFinnhub      Source = "finnhub"
)

// Quote is a point-in-time price snapshot for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	CompanyName   string    `json:"company_name,omitempty"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	DayOpen       float64   `json:"day_open"`
	DayHigh       float64   `json:"day_high"`
	DayLow        float64   `json:"day_low"`
	Volume        int64     `json:"volume"`
	AvgVolume     int64     `json:"avg_volume"`
	Week52High    float64   `json:"week52_high"`
	Week52Low     float64   `json:"week52_low"`
	PERatio       float64   `json:"pe_ratio,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Source        Source    `json:"source"`
}

// Valid reports whether the quote can be served to callers. A quote with a
// non-positive price is never valid, whatever the source said.
func (q *Quote) Valid() bool {
	return q != nil && q.Price > 0
}

// Bar is one OHLCV row of a series.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ascending, non-overlapping OHLCV history for a symbol.
// An empty series is a valid "no data" outcome, not an error.
type Series struct {
	Symbol   string `json:"symbol"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
	Bars     []Bar  `json:"bars"`
}

// Empty reports whether the series carries no rows.
func (s *Series) Empty() bool {
	return s == nil || len(s.Bars) == 0
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column as floats.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// Tick is a single live trade from the streaming feed.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// FailCode classifies a provider or aggregation failure.
type FailCode string

const (
	FailTimeout        FailCode = "timeout"
	FailHTTPStatus     FailCode = "http_status"
	FailMalformed      FailCode = "malformed"
	FailInvalidPrice   FailCode = "invalid_price"
	FailBudgetExceeded FailCode = "budget_exceeded"
	FailNotFound       FailCode = "not_found"
	FailAllSources     FailCode = "all_sources_failed"
	FailNoData         FailCode = "no_data"
)

// Failure is the typed error every adapter and aggregator operation returns
// instead of raising. Source is empty for aggregate failures.
type Failure struct {
	Code    FailCode `json:"code"`
	Source  Source   `json:"source,omitempty"`
	Symbol  string   `json:"symbol"`
	Message string   `json:"message"`
}

func (f *Failure) Error() string {
	if f.Source != "" {
		return fmt.Sprintf("%s: %s %s: %s", f.Source, f.Code, f.Symbol, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.Code, f.Symbol, f.Message)
}

// NewFailure builds a typed failure.
func NewFailure(code FailCode, source Source, symbol, message string) *Failure {
	return &Failure{Code: code, Source: source, Symbol: symbol, Message: message}
}

// Failuref builds a typed failure with a formatted message.
func Failuref(code FailCode, source Source, symbol, format string, a ...interface{}) *Failure {
	return NewFailure(code, source, symbol, fmt.Sprintf(format, a...))
}

// QuoteResult is one entry of a batch quote fetch. Exactly one of Quote and
// Fail is set.
type QuoteResult struct {
	Quote *Quote   `json:"quote,omitempty"`
	Fail  *Failure `json:"error,omitempty"`
}

// OK reports whether the result carries a valid quote.
func (r QuoteResult) OK() bool {
	return r.Fail == nil && r.Quote.Valid()
}
