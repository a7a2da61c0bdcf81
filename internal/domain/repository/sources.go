package repository

import (
	"context"

	"StockPulse/internal/domain/models"
)

// Period represents a history lookback window.
type Period string

const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1Mo Period = "1mo"
	Period3Mo Period = "3mo"
	Period6Mo Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	PeriodMax Period = "max"
)

// Interval represents a bar resolution.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1D  Interval = "1d"
	Interval1Wk Interval = "1wk"
	Interval1Mo Interval = "1mo"
)

// SourceAdapter fetches a spot quote from one upstream provider. Every
// error it returns is a *models.Failure.
type SourceAdapter interface {
	Name() models.Source
	FetchQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// SeriesSource fetches OHLCV history. Only providers that expose a
// history API implement it.
type SeriesSource interface {
	FetchSeries(ctx context.Context, symbol string, period Period, interval Interval) (*models.Series, error)
}
