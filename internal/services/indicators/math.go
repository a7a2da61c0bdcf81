package indicators

import "math"

// round2 trims a value to two decimals, the precision everything downstream
// displays and stores.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev returns the sample standard deviation (n-1 denominator).
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sum2 := 0.0
	for _, v := range values {
		d := v - m
		sum2 += d * d
	}
	variance := sum2 / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// EMASeries computes an exponential moving average seeded at the first
// value, ema[i] = alpha*x[i] + (1-alpha)*ema[i-1] with alpha = 2/(period+1).
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// EMAValue returns the latest EMA for the period, requiring at least
// period values before it reports one.
func EMAValue(values []float64, period int) (float64, bool) {
	if len(values) < period {
		return 0, false
	}
	s := EMASeries(values, period)
	return round2(s[len(s)-1]), true
}
