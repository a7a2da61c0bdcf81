package indicators

import "math"

// RSIValue computes the relative strength index over simple rolling
// averages of gains and losses. It needs period+1 closes; a window with no
// movement at all has no defined RSI.
func RSIValue(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	avgGain, avgLoss := rollingGainLoss(closes[len(closes)-period-1:], period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return 0, false
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return round2(100 - 100/(1+rs)), true
}

// RSISeries computes the RSI for every bar with enough history.
// out[i] corresponds to closes[i+period]; flat windows yield NaN.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}
	out := make([]float64, 0, len(closes)-period)
	for end := period; end < len(closes); end++ {
		avgGain, avgLoss := rollingGainLoss(closes[end-period:end+1], period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out = append(out, math.NaN())
		case avgLoss == 0:
			out = append(out, 100)
		default:
			rs := avgGain / avgLoss
			out = append(out, round2(100-100/(1+rs)))
		}
	}
	return out
}

// rollingGainLoss averages the ups and downs across a window of period+1
// closes (period deltas).
func rollingGainLoss(window []float64, period int) (float64, float64) {
	gainSum := 0.0
	lossSum := 0.0
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	return gainSum / float64(period), lossSum / float64(period)
}

// ClassifyRSI maps an RSI reading to its zone and conviction strength.
func ClassifyRSI(value float64) (string, int) {
	switch {
	case value < 20:
		return "EXTREME_OVERSOLD", 5
	case value < 30:
		return "OVERSOLD", 4
	case value < 40:
		return "WEAK", 2
	case value <= 60:
		return "NEUTRAL", 0
	case value <= 70:
		return "STRONG", 2
	case value <= 80:
		return "OVERBOUGHT", 4
	default:
		return "EXTREME_OVERBOUGHT", 5
	}
}

// RSIDivergence looks for price and RSI disagreeing over the lookback.
// A lower price with a higher RSI is bullish, the mirror case bearish.
// The extremes must sit on different bars for the divergence to count.
func RSIDivergence(closes, rsiVals []float64, lookback int) string {
	if lookback < 2 || len(closes) < lookback || len(rsiVals) < lookback {
		return ""
	}
	half := lookback / 2
	recentCloses := closes[len(closes)-lookback:]
	recentRSI := rsiVals[len(rsiVals)-lookback:]

	priceNow, pricePrev := closes[len(closes)-1], closes[len(closes)-half]
	rsiNow, rsiPrev := rsiVals[len(rsiVals)-1], rsiVals[len(rsiVals)-half]

	if argMin(recentCloses) != argMin(recentRSI) &&
		priceNow < pricePrev && rsiNow > rsiPrev {
		return "BULLISH_DIVERGENCE"
	}
	if argMax(recentCloses) != argMax(recentRSI) &&
		priceNow > pricePrev && rsiNow < rsiPrev {
		return "BEARISH_DIVERGENCE"
	}
	return ""
}

func argMin(values []float64) int {
	idx := 0
	for i, v := range values {
		if v < values[idx] {
			idx = i
		}
	}
	return idx
}

func argMax(values []float64) int {
	idx := 0
	for i, v := range values {
		if v > values[idx] {
			idx = i
		}
	}
	return idx
}
