package indicators

import "StockPulse/internal/domain/models"

// ComputePivots derives classic floor-trader pivot levels from the prior
// session's high, low and close, then locates the current price among them.
func ComputePivots(high, low, close, price float64) *models.Pivots {
	pivot := (high + low + close) / 3

	p := &models.Pivots{
		Pivot: round2(pivot),
		R1:    round2(2*pivot - low),
		R2:    round2(pivot + (high - low)),
		R3:    round2(high + 2*(pivot-low)),
		S1:    round2(2*pivot - high),
		S2:    round2(pivot - (high - low)),
		S3:    round2(low - 2*(high-pivot)),
	}

	switch {
	case price > p.Pivot:
		p.Bias = "BULLISH"
	case price < p.Pivot:
		p.Bias = "BEARISH"
	default:
		p.Bias = "NEUTRAL"
	}

	p.NearestSupport = nearestBelow(price, p.S1, p.S2, p.S3)
	p.NearestResistance = nearestAbove(price, p.R1, p.R2, p.R3)
	return p
}

// nearestBelow returns the highest level strictly under price, 0 if none.
func nearestBelow(price float64, levels ...float64) float64 {
	best := 0.0
	found := false
	for _, lv := range levels {
		if lv < price && (!found || lv > best) {
			best = lv
			found = true
		}
	}
	return best
}

// nearestAbove returns the lowest level strictly over price, 0 if none.
func nearestAbove(price float64, levels ...float64) float64 {
	best := 0.0
	found := false
	for _, lv := range levels {
		if lv > price && (!found || lv < best) {
			best = lv
			found = true
		}
	}
	return best
}
