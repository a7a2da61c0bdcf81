package repository

// IsValidPeriod returns true if p is a supported lookback period.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1D, Period5D, Period1Mo, Period3Mo, Period6Mo,
		Period1Y, Period2Y, Period5Y, PeriodMax:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the lookback used when callers pass none. Three
// months of dailies is the shortest window every indicator can run on.
func DefaultPeriod() Period { return Period3Mo }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// IsValidInterval returns true if iv is a supported bar resolution.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1m, Interval5m, Interval15m, Interval30m,
		Interval1h, Interval1D, Interval1Wk, Interval1Mo:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default bar resolution.
func DefaultInterval() Interval { return Interval1D }

// NormalizeInterval converts a raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}
