package indicators

import (
	"sort"

	"StockPulse/internal/domain/models"
)

// MultiEMA computes the EMA for every period the series is long enough
// for; shorter periods survive on data that starves the longer ones.
func MultiEMA(closes []float64, periods []int) map[int]float64 {
	out := make(map[int]float64)
	for _, p := range periods {
		if v, ok := EMAValue(closes, p); ok {
			out[p] = v
		}
	}
	return out
}

// AnalyzeEMA relates the current price to the EMA ladder and checks the
// fast/slow pair for a fresh cross.
func AnalyzeEMA(price float64, closes []float64, periods []int, fast, slow int) (*models.EMAAnalysis, bool) {
	values := MultiEMA(closes, periods)
	if len(values) == 0 {
		return nil, false
	}

	position, posStrength := emaPosition(price, values)
	crossover, crossStrength := emaCrossover(closes, fast, slow)

	return &models.EMAAnalysis{
		Values:            values,
		Position:          position,
		PositionStrength:  posStrength,
		Alignment:         emaAlignment(values),
		Crossover:         crossover,
		CrossoverStrength: crossStrength,
	}, true
}

func emaPosition(price float64, values map[int]float64) (string, int) {
	aboveCount := 0
	for _, v := range values {
		if price > v {
			aboveCount++
		}
	}
	total := len(values)
	switch {
	case aboveCount == total:
		return "STRONG_BULLISH", 5
	case aboveCount == 0:
		return "STRONG_BEARISH", 5
	case float64(aboveCount) > float64(total)/2:
		return "BULLISH", 3
	default:
		return "BEARISH", 3
	}
}

// emaAlignment checks for a strict fan: every faster EMA above (or below)
// the next slower one.
func emaAlignment(values map[int]float64) string {
	if len(values) < 2 {
		return "MIXED"
	}
	periods := make([]int, 0, len(values))
	for p := range values {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	bullish, bearish := true, true
	for i := 0; i < len(periods)-1; i++ {
		fast, slow := values[periods[i]], values[periods[i+1]]
		if fast <= slow {
			bullish = false
		}
		if fast >= slow {
			bearish = false
		}
	}
	switch {
	case bullish:
		return "BULLISH"
	case bearish:
		return "BEARISH"
	default:
		return "MIXED"
	}
}

// emaCrossover detects a golden or death cross between the fast and slow
// EMAs on the latest bar. Needs slow+2 closes for the previous bar.
func emaCrossover(closes []float64, fast, slow int) (string, int) {
	if len(closes) < slow+2 {
		return "NONE", 0
	}
	fastSeries := EMASeries(closes, fast)
	slowSeries := EMASeries(closes, slow)

	curFast, curSlow := fastSeries[len(fastSeries)-1], slowSeries[len(slowSeries)-1]
	prevFast, prevSlow := fastSeries[len(fastSeries)-2], slowSeries[len(slowSeries)-2]

	if prevFast <= prevSlow && curFast > curSlow {
		return "GOLDEN_CROSS", 5
	}
	if prevFast >= prevSlow && curFast < curSlow {
		return "DEATH_CROSS", 5
	}
	return "NONE", 0
}
