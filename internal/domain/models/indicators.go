package models

import "time"

// RSI is the relative strength index reading for one symbol.
type RSI struct {
	Value      float64 `json:"value"`
	Period     int     `json:"period"`
	Signal     string  `json:"signal"`
	Strength   int     `json:"strength"`
	Divergence string  `json:"divergence,omitempty"`
}

// MACD is the moving average convergence divergence reading.
type MACD struct {
	Line           float64 `json:"line"`
	Signal         float64 `json:"signal"`
	Histogram      float64 `json:"histogram"`
	Crossover      string  `json:"crossover"`
	Interpretation string  `json:"interpretation"`
	Strength       int     `json:"strength"`
}

// EMAAnalysis describes the price position against a ladder of exponential
// moving averages, plus the fast/slow crossover state.
type EMAAnalysis struct {
	Values            map[int]float64 `json:"values"`
	Position          string          `json:"position"`
	PositionStrength  int             `json:"position_strength"`
	Alignment         string          `json:"alignment"`
	Crossover         string          `json:"crossover"`
	CrossoverStrength int             `json:"crossover_strength"`
}

// Bollinger is the Bollinger band reading. Squeeze and BandWalk are empty
// when the series was too short to compute them.
type Bollinger struct {
	Upper           float64 `json:"upper"`
	Middle          float64 `json:"middle"`
	Lower           float64 `json:"lower"`
	Bandwidth       float64 `json:"bandwidth"`
	PercentB        float64 `json:"percent_b"`
	Signal          string  `json:"signal"`
	Squeeze         string  `json:"squeeze,omitempty"`
	SqueezeStrength int     `json:"squeeze_strength,omitempty"`
	BandWalk        string  `json:"band_walk,omitempty"`
}

// Pivots holds classic floor-trader pivot levels from the prior session.
type Pivots struct {
	Pivot             float64 `json:"pivot"`
	R1                float64 `json:"r1"`
	R2                float64 `json:"r2"`
	R3                float64 `json:"r3"`
	S1                float64 `json:"s1"`
	S2                float64 `json:"s2"`
	S3                float64 `json:"s3"`
	Bias              string  `json:"bias"`
	NearestSupport    float64 `json:"nearest_support,omitempty"`
	NearestResistance float64 `json:"nearest_resistance,omitempty"`
}

// VolumeAnalysis relates current volume to its recent average and tracks
// the on-balance-volume and VWAP context.
type VolumeAnalysis struct {
	Current        int64   `json:"current"`
	Average        float64 `json:"average"`
	Ratio          float64 `json:"ratio"`
	Classification string  `json:"classification"`
	Strength       int     `json:"strength"`
	PriceChangePct float64 `json:"price_change_pct"`
	OBV            float64 `json:"obv"`
	OBVTrend       string  `json:"obv_trend"`
	VWAP           float64 `json:"vwap"`
	VWAPSignal     string  `json:"vwap_signal"`
}

// IndicatorSet is the full indicator snapshot for one symbol. Individual
// indicators are nil when the underlying series was too short for them.
type IndicatorSet struct {
	Symbol     string          `json:"symbol"`
	Price      float64         `json:"price"`
	ComputedAt time.Time       `json:"computed_at"`
	RSI        *RSI            `json:"rsi,omitempty"`
	MACD       *MACD           `json:"macd,omitempty"`
	EMA        *EMAAnalysis    `json:"ema,omitempty"`
	Bollinger  *Bollinger      `json:"bollinger,omitempty"`
	Pivots     *Pivots         `json:"pivots,omitempty"`
	Volume     *VolumeAnalysis `json:"volume,omitempty"`
}
