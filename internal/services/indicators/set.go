package indicators

import (
	"time"

	"StockPulse/internal/domain/models"
)

// Standard parameters everything in the set is computed with.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerStdDev = 2.0
	VolumePeriod    = 20
)

// EMAPeriods is the ladder the EMA analysis walks, fastest first.
var EMAPeriods = []int{20, 50, 200}

// BuildSet computes every indicator the series supports for one symbol.
// Indicators whose history requirement is not met stay nil; the set
// itself is always returned so callers can see what was computable.
func BuildSet(symbol string, price float64, series *models.Series) *models.IndicatorSet {
	set := &models.IndicatorSet{
		Symbol:     symbol,
		Price:      price,
		ComputedAt: time.Now(),
	}
	if series.Empty() {
		return set
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	if value, ok := RSIValue(closes, RSIPeriod); ok {
		signal, strength := ClassifyRSI(value)
		set.RSI = &models.RSI{
			Value:      value,
			Period:     RSIPeriod,
			Signal:     signal,
			Strength:   strength,
			Divergence: RSIDivergence(closes, RSISeries(closes, RSIPeriod), RSIPeriod),
		}
	}

	if macd, ok := ComputeMACD(closes, MACDFast, MACDSlow, MACDSignal); ok {
		set.MACD = macd
	}

	if ema, ok := AnalyzeEMA(price, closes, EMAPeriods, EMAPeriods[0], EMAPeriods[1]); ok {
		set.EMA = ema
	}

	if bb, ok := ComputeBollinger(closes, BollingerPeriod, BollingerStdDev); ok {
		set.Bollinger = bb
	}

	if len(series.Bars) >= 2 {
		prior := series.Bars[len(series.Bars)-2]
		set.Pivots = ComputePivots(prior.High, prior.Low, prior.Close, price)
	}

	if va, ok := AnalyzeVolume(closes, highs, lows, volumes, VolumePeriod); ok {
		set.Volume = va
	}

	return set
}
