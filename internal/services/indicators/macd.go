package indicators

import "StockPulse/internal/domain/models"

// ComputeMACD builds the MACD reading from closes. It needs slow+signal
// closes so the signal line has a full warmup behind it.
func ComputeMACD(closes []float64, fast, slow, signal int) (*models.MACD, bool) {
	if len(closes) < slow+signal {
		return nil, false
	}

	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := EMASeries(line, signal)

	curLine := line[len(line)-1]
	curSignal := signalLine[len(signalLine)-1]
	prevLine := line[len(line)-2]
	prevSignal := signalLine[len(signalLine)-2]
	histogram := round2(curLine - curSignal)

	crossover := "NONE"
	if prevLine <= prevSignal && curLine > curSignal {
		crossover = "BULLISH_CROSSOVER"
	} else if prevLine >= prevSignal && curLine < curSignal {
		crossover = "BEARISH_CROSSOVER"
	}

	interpretation, strength := interpretMACD(curLine, curSignal, histogram, crossover)

	return &models.MACD{
		Line:           round2(curLine),
		Signal:         round2(curSignal),
		Histogram:      histogram,
		Crossover:      crossover,
		Interpretation: interpretation,
		Strength:       strength,
	}, true
}

// interpretMACD turns the line/signal relation into a trading stance.
// Crossovers dominate; otherwise the histogram decides conviction.
func interpretMACD(line, signal, histogram float64, crossover string) (string, int) {
	switch crossover {
	case "BULLISH_CROSSOVER":
		return "STRONG_BUY", 5
	case "BEARISH_CROSSOVER":
		return "STRONG_SELL", 5
	}
	switch {
	case line > signal && histogram > 0.5:
		return "BUY", 3
	case line > signal:
		return "WEAK_BUY", 2
	case line < signal && histogram < -0.5:
		return "SELL", 3
	case line < signal:
		return "WEAK_SELL", 2
	default:
		return "NEUTRAL", 0
	}
}
