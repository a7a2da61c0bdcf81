package indicators

import "StockPulse/internal/domain/models"

// ComputeBollinger builds the Bollinger reading over a simple moving
// average with bands at k sample standard deviations. Squeeze and band
// walk are filled in only when the series carries enough history for them.
func ComputeBollinger(closes []float64, period int, k float64) (*models.Bollinger, bool) {
	if period < 2 || len(closes) < period {
		return nil, false
	}

	price := closes[len(closes)-1]
	upper, middle, lower := bandsAt(closes, len(closes)-1, period, k)

	bandwidth := 0.0
	if middle != 0 {
		bandwidth = (upper - lower) / middle * 100
	}
	percentB := 0.0
	if den := upper - lower; den != 0 {
		percentB = (price - lower) / den
	}

	var signal string
	switch {
	case price >= upper:
		signal = "OVERBOUGHT"
	case price <= lower:
		signal = "OVERSOLD"
	case price > middle:
		signal = "BULLISH"
	case price < middle:
		signal = "BEARISH"
	default:
		signal = "NEUTRAL"
	}

	squeeze, squeezeStrength := detectSqueeze(closes, period, k)

	return &models.Bollinger{
		Upper:           round2(upper),
		Middle:          round2(middle),
		Lower:           round2(lower),
		Bandwidth:       round2(bandwidth),
		PercentB:        round2(percentB),
		Signal:          signal,
		Squeeze:         squeeze,
		SqueezeStrength: squeezeStrength,
		BandWalk:        detectBandWalk(closes, period, k, 5),
	}, true
}

// bandsAt computes the bands for the window ending at index end.
func bandsAt(closes []float64, end, period int, k float64) (upper, middle, lower float64) {
	window := closes[end-period+1 : end+1]
	middle = mean(window)
	sd := sampleStdDev(window)
	return middle + k*sd, middle, middle - k*sd
}

// detectSqueeze compares the current bandwidth against its own trailing
// range. Near the minimum means volatility compressed, near the maximum
// means it is already released.
func detectSqueeze(closes []float64, period int, k float64) (string, int) {
	if len(closes) < period*2 {
		return "", 0
	}
	history := make([]float64, 0, period)
	for end := len(closes) - period; end < len(closes); end++ {
		upper, middle, lower := bandsAt(closes, end, period, k)
		if middle == 0 {
			history = append(history, 0)
			continue
		}
		history = append(history, (upper-lower)/middle*100)
	}
	current := history[len(history)-1]

	minBw, maxBw := history[0], history[0]
	for _, bw := range history {
		if bw < minBw {
			minBw = bw
		}
		if bw > maxBw {
			maxBw = bw
		}
	}
	switch {
	case current <= minBw*1.1:
		return "SQUEEZE", 4
	case current >= maxBw*0.9:
		return "EXPANSION", 3
	default:
		return "NORMAL", 0
	}
}

// detectBandWalk reports a walk when nearly every recent close hugs one
// band, each close measured against the bands of its own bar.
func detectBandWalk(closes []float64, period int, k float64, consecutive int) string {
	if len(closes) < period+consecutive {
		return ""
	}
	upperTouches, lowerTouches := 0, 0
	for end := len(closes) - consecutive; end < len(closes); end++ {
		upper, _, lower := bandsAt(closes, end, period, k)
		if closes[end] >= upper*0.98 {
			upperTouches++
		}
		if closes[end] <= lower*1.02 {
			lowerTouches++
		}
	}
	switch {
	case upperTouches >= consecutive-1:
		return "UPPER_WALK"
	case lowerTouches >= consecutive-1:
		return "LOWER_WALK"
	default:
		return "NONE"
	}
}
