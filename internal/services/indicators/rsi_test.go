package indicators

import (
	"math"
	"testing"
)

func TestRSIValueNeedsHistory(t *testing.T) {
	if _, ok := RSIValue([]float64{100, 101}, 14); ok {
		t.Fatalf("expected no RSI for short history")
	}
}

func TestRSIValueFlatSeries(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 250
	}
	if _, ok := RSIValue(closes, 14); ok {
		t.Fatalf("expected no RSI for a flat series")
	}
}

func TestRSIValueAllGains(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got, ok := RSIValue(closes, 14)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestRSIValueBalanced(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 101
		}
	}
	got, ok := RSIValue(closes, 14)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got != 50 {
		t.Fatalf("expected 50 for balanced gains and losses, got %v", got)
	}
}

func TestRSIValueKnown(t *testing.T) {
	got, ok := RSIValue([]float64{10, 11, 10.5}, 2)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
}

func TestRSISeriesAlignment(t *testing.T) {
	out := RSISeries([]float64{10, 11, 10.5, 10}, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 values, got %d", len(out))
	}
	if out[0] != 66.67 {
		t.Fatalf("expected 66.67 at 0, got %v", out[0])
	}
	if out[1] != 0 {
		t.Fatalf("expected 0 at 1, got %v", out[1])
	}
}

func TestRSISeriesFlatWindow(t *testing.T) {
	out := RSISeries([]float64{5, 5, 5, 6}, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 values, got %d", len(out))
	}
	if !math.IsNaN(out[0]) {
		t.Fatalf("expected NaN for a flat window, got %v", out[0])
	}
	if out[1] != 100 {
		t.Fatalf("expected 100, got %v", out[1])
	}
}

func TestClassifyRSI(t *testing.T) {
	cases := []struct {
		value    float64
		signal   string
		strength int
	}{
		{10, "EXTREME_OVERSOLD", 5},
		{20, "OVERSOLD", 4},
		{30, "WEAK", 2},
		{40, "NEUTRAL", 0},
		{60, "NEUTRAL", 0},
		{70, "STRONG", 2},
		{80, "OVERBOUGHT", 4},
		{80.01, "EXTREME_OVERBOUGHT", 5},
	}
	for _, c := range cases {
		signal, strength := ClassifyRSI(c.value)
		if signal != c.signal || strength != c.strength {
			t.Fatalf("RSI %v: expected %s/%d, got %s/%d", c.value, c.signal, c.strength, signal, strength)
		}
	}
}

func TestRSIDivergenceBullish(t *testing.T) {
	closes := []float64{10, 8, 9, 8.5}
	rsi := []float64{25, 30, 28, 32}
	if got := RSIDivergence(closes, rsi, 4); got != "BULLISH_DIVERGENCE" {
		t.Fatalf("expected bullish divergence, got %q", got)
	}
}

func TestRSIDivergenceBearish(t *testing.T) {
	closes := []float64{10, 12, 11, 11.5}
	rsi := []float64{80, 75, 78, 74}
	if got := RSIDivergence(closes, rsi, 4); got != "BEARISH_DIVERGENCE" {
		t.Fatalf("expected bearish divergence, got %q", got)
	}
}

func TestRSIDivergenceNone(t *testing.T) {
	closes := []float64{10, 11, 12, 13}
	rsi := []float64{50, 55, 60, 65}
	if got := RSIDivergence(closes, rsi, 4); got != "" {
		t.Fatalf("expected no divergence, got %q", got)
	}
}
