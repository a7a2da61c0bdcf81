package models

import "time"

// SignalKind enumerates the technical conditions the scanner can report.
type SignalKind string

const (
	SignalRSIOversold         SignalKind = "rsi_oversold"
	SignalRSIOverbought       SignalKind = "rsi_overbought"
	SignalMACDBullish         SignalKind = "macd_bullish"
	SignalMACDBearish         SignalKind = "macd_bearish"
	SignalVolumeSpike         SignalKind = "volume_spike"
	SignalBreakout            SignalKind = "breakout"
	SignalBreakdown           SignalKind = "breakdown"
	SignalSupportBounce       SignalKind = "support_bounce"
	SignalResistanceRejection SignalKind = "resistance_rejection"
)

// Valid reports whether k is a known signal kind.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalRSIOversold, SignalRSIOverbought, SignalMACDBullish,
		SignalMACDBearish, SignalVolumeSpike, SignalBreakout,
		SignalBreakdown, SignalSupportBounce, SignalResistanceRejection:
		return true
	}
	return false
}

// Signal is one scanner finding, carrying the indicator snapshot that
// produced it so consumers never have to re-fetch market data.
type Signal struct {
	Symbol      string     `json:"symbol"`
	Kind        SignalKind `json:"kind"`
	Price       float64    `json:"price"`
	RSI         float64    `json:"rsi,omitempty"`
	MACDHist    float64    `json:"macd_hist,omitempty"`
	VolumeRatio float64    `json:"volume_ratio,omitempty"`
	Strength    int        `json:"strength"`
	Description string     `json:"description"`
	Timestamp   time.Time  `json:"timestamp"`
}

// SignalQuery filters persisted signals. Zero values mean "no filter";
// Limit is capped by the store.
type SignalQuery struct {
	Symbol string
	Kind   SignalKind
	From   time.Time
	To     time.Time
	Limit  int
}

// ScanSummary is the cached outcome of the latest scanner sweep.
// Errors maps symbols that could not be evaluated to the reason.
type ScanSummary struct {
	SweptAt    time.Time         `json:"swept_at"`
	Symbols    []string          `json:"symbols"`
	Signals    []Signal          `json:"signals"`
	Errors     map[string]string `json:"errors,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}
