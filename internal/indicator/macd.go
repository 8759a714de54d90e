package indicator

// MACD calculates the difference line, its signal line and the histogram
// 2*(diff-dea) over closes. All three slices have len(closes) entries and are
// NaN until warm.
func MACD(closes []float64, fast, slow, signal int) (diff, dea, hist []float64) {
	n := len(closes)
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	diff = make([]float64, n)
	for i := range diff {
		diff[i] = fastEMA[i] - slowEMA[i]
	}

	dea = EMA(diff, signal)
	hist = make([]float64, n)
	for i := range hist {
		hist[i] = 2 * (diff[i] - dea[i])
	}
	return diff, dea, hist
}
