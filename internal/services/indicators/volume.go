package indicators

import "StockPulse/internal/domain/models"

// AnalyzeVolume relates the latest volume to its recent average and folds
// in the OBV and VWAP context. It needs period volume bars.
func AnalyzeVolume(closes, highs, lows, volumes []float64, period int) (*models.VolumeAnalysis, bool) {
	if period <= 0 || len(volumes) < period {
		return nil, false
	}

	current := volumes[len(volumes)-1]
	avg := mean(volumes[len(volumes)-period:])

	ratio := 0.0
	if avg > 0 {
		ratio = current / avg
	}

	priceChange := 0.0
	if len(closes) > 1 && closes[len(closes)-2] != 0 {
		prev := closes[len(closes)-2]
		priceChange = (closes[len(closes)-1] - prev) / prev * 100
	}

	spike := ratio > 2.0
	var classification string
	var strength int
	switch {
	case spike && priceChange > 0:
		classification = "BULLISH_VOLUME_SPIKE"
		strength = 5
	case spike && priceChange < 0:
		classification = "BEARISH_VOLUME_SPIKE"
		strength = 5
	case ratio < 0.5:
		classification = "LOW_VOLUME"
		strength = 2
	case ratio > 1.5:
		classification = "HIGH_VOLUME"
		strength = 3
	default:
		classification = "NORMAL_VOLUME"
		strength = 0
	}

	va := &models.VolumeAnalysis{
		Current:        int64(current),
		Average:        round2(avg),
		Ratio:          round2(ratio),
		Classification: classification,
		Strength:       strength,
		PriceChangePct: round2(priceChange),
	}

	obv := OBVSeries(closes, volumes)
	if len(obv) > 0 {
		va.OBV = obv[len(obv)-1]
		va.OBVTrend = obvTrend(obv, 10)
	}

	if vwap, ok := VWAP(closes, highs, lows, volumes); ok {
		va.VWAP = vwap
		va.VWAPSignal = vwapSignal(closes[len(closes)-1], vwap)
	}

	return va, true
}

// OBVSeries accumulates volume by close direction, seeded at the first
// bar's volume.
func OBVSeries(closes, volumes []float64) []float64 {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return nil
	}
	out := make([]float64, len(closes))
	out[0] = volumes[0]
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// obvTrend compares the latest OBV to the reading lookback bars ago.
func obvTrend(obv []float64, lookback int) string {
	if len(obv) < lookback {
		return "FLAT"
	}
	cur := obv[len(obv)-1]
	past := obv[len(obv)-lookback]
	switch {
	case cur > past:
		return "RISING"
	case cur < past:
		return "FALLING"
	default:
		return "FLAT"
	}
}

// VWAP is the volume weighted average of the typical price across the
// whole series.
func VWAP(closes, highs, lows, volumes []float64) (float64, bool) {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return 0, false
	}
	num, den := 0.0, 0.0
	for i := 0; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3
		num += typical * volumes[i]
		den += volumes[i]
	}
	if den == 0 {
		return 0, false
	}
	return round2(num / den), true
}

func vwapSignal(price, vwap float64) string {
	switch {
	case price > vwap*1.02:
		return "ABOVE_VWAP"
	case price < vwap*0.98:
		return "BELOW_VWAP"
	default:
		return "NEAR_VWAP"
	}
}
