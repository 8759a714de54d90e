// Package indicator derives the moving average and MACD columns of a series.
package indicator

import "math"

// SMA returns the simple moving average of values over period bars. The
// result has len(values) entries and is NaN until period values are seen.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA returns the exponential moving average of values over period bars,
// seeded with the simple average of the first period values. Leading NaN
// entries are skipped, so EMA can be chained on the output of another
// indicator.
func EMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 {
		return out
	}

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out
	}

	var sum float64
	for _, v := range values[start : start+period] {
		sum += v
	}
	ema := sum / float64(period)
	seed := start + period - 1
	out[seed] = ema

	k := 2.0 / float64(period+1)
	for i := seed + 1; i < len(values); i++ {
		ema += (values[i] - ema) * k
		out[i] = ema
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
