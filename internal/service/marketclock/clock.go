package marketclock

import (
	"fmt"
	"time"

	"StockPulse/internal/domain/service"
	"StockPulse/pkg/config"
)

// Clock answers whether the exchange is trading at a given instant.
// Weekends are closed; on weekdays the session runs from open to close,
// both bounds inclusive.
type Clock struct {
	loc   *time.Location
	open  config.ClockTime
	close config.ClockTime
}

var _ service.MarketClock = (*Clock)(nil)

// New builds a Clock for the exchange timezone and session bounds.
func New(timezone, open, close string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	o, err := config.ParseClock(open)
	if err != nil {
		return nil, err
	}
	c, err := config.ParseClock(close)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc, open: o, close: c}, nil
}

// IsOpen reports whether the session is running at the given instant.
func (c *Clock) IsOpen(at time.Time) bool {
	t := at.In(c.loc)
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), c.open.Hour, c.open.Minute, 0, 0, c.loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), c.close.Hour, c.close.Minute, 0, 0, c.loc)
	return !t.Before(start) && !t.After(end)
}

// Location returns the exchange timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
