package service

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
)

// Aggregator is the single entry point for quotes and history. It owns the
// cache-first read path and the provider fallback chain.
type Aggregator interface {
	GetQuote(ctx context.Context, symbol string, refresh bool) (*models.Quote, error)
	GetManyQuotes(ctx context.Context, symbols []string) map[string]models.QuoteResult
	GetSeries(ctx context.Context, symbol string, period repository.Period, interval repository.Interval) (*models.Series, error)
	ValidateSymbol(ctx context.Context, symbol string) bool
}

// IndicatorProvider computes full indicator sets from history, cache-first.
type IndicatorProvider interface {
	GetIndicators(ctx context.Context, symbol string, refresh bool) (*models.IndicatorSet, error)
}

// MarketClock reports whether the exchange trades at a given instant.
type MarketClock interface {
	IsOpen(at time.Time) bool
	Location() *time.Location
}

// QuotaGuard tracks per-provider request budgets across process restarts.
type QuotaGuard interface {
	Allow(ctx context.Context, subject string, limit int, window time.Duration) bool
}
