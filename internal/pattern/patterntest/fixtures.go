// Package patterntest provides hand-built indicator series for tests of the
// segmentation pipeline and the strategies built on it.
package patterntest

import (
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

// Start is the date of the first bar in every fixture.
var Start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// Row is the compact form of a bar used to write fixtures.
type Row struct {
	Close, Low      float64
	Diff, DEA, MACD float64
	MA24, MA52      float64
}

// Bars expands rows into complete daily bars. Columns a row does not carry are
// filled with values that keep every bar finite.
func Bars(rows []Row) []core.Bar {
	bars := make([]core.Bar, len(rows))
	for i, r := range rows {
		bars[i] = core.Bar{
			Time:         Start.AddDate(0, 0, i),
			Open:         r.Close,
			High:         r.Close + 0.2,
			Low:          r.Low,
			Close:        r.Close,
			Volume:       1_000_000,
			Diff:         r.Diff,
			DEA:          r.DEA,
			MACD:         r.MACD,
			MA5:          r.Close,
			MA10:         r.Close,
			MA20:         r.MA24,
			MA24:         r.MA24,
			MA30:         r.MA52,
			MA52:         r.MA52,
			MA60:         r.MA52,
			TurnoverRate: 5,
			VolumeRatio:  2,
		}
	}
	return bars
}

// Series wraps bars as a daily series for code.
func Series(code string, bars []core.Bar) core.Series {
	return core.Series{Code: code, Kind: core.PeriodDaily, Bars: bars}
}

// lead-in shared by every below-zero fixture: price drops through MA52 while
// DEA is still positive (index 1), then DEA crosses below zero (index 2).
var leadIn = []Row{
	{Close: 13.0, Low: 12.8, Diff: 0.30, DEA: 0.20, MACD: 0.20, MA24: 11, MA52: 12},
	{Close: 11.5, Low: 11.4, Diff: -0.05, DEA: 0.10, MACD: -0.30, MA24: 11, MA52: 12},
	{Close: 9.5, Low: 9.2, Diff: -0.40, DEA: -0.10, MACD: -0.60, MA24: 10, MA52: 12},
}

// SingleConfirmed has one down-cross after which price reclaims MA24 once and
// stays above it through the last bar. Expect a single confirmed-extension
// period starting at index 2.
func SingleConfirmed() []core.Bar {
	rows := append(append([]Row{}, leadIn...),
		Row{Close: 9.0, Low: 8.8, Diff: -0.60, DEA: -0.30, MACD: -0.60, MA24: 10, MA52: 12},
		Row{Close: 10.2, Low: 9.6, Diff: -0.50, DEA: -0.35, MACD: -0.30, MA24: 10, MA52: 12},
		Row{Close: 10.5, Low: 10.1, Diff: -0.40, DEA: -0.30, MACD: -0.20, MA24: 10, MA52: 12},
	)
	return Bars(rows)
}

// TwoPeriods has period A (indices 2..5) with its lows at index 3, and period B
// starting at index 5 when price falls back under MA24. The B rows are given by
// the caller so tests can shape its lows.
func TwoPeriods(b []Row) []core.Bar {
	rows := append(append([]Row{}, leadIn...),
		Row{Close: 9.0, Low: 8.8, Diff: -0.80, DEA: -0.30, MACD: -1.00, MA24: 10, MA52: 12},
		Row{Close: 10.2, Low: 9.6, Diff: -0.50, DEA: -0.35, MACD: -0.30, MA24: 10, MA52: 12},
	)
	return Bars(append(rows, b...))
}

// DivergenceRows make period B print a lower low (8.5 < 8.8) on a higher
// oscillator low (-0.5 > -0.8) with a negative histogram low.
func DivergenceRows() []Row {
	return []Row{
		{Close: 9.6, Low: 9.4, Diff: -0.45, DEA: -0.35, MACD: -0.20, MA24: 10, MA52: 12},
		{Close: 8.6, Low: 8.5, Diff: -0.50, DEA: -0.40, MACD: -0.20, MA24: 10, MA52: 12},
		{Close: 9.0, Low: 8.9, Diff: -0.40, DEA: -0.38, MACD: -0.05, MA24: 10, MA52: 12},
	}
}

// WeakMomentumRows make period B hold above A's low (9.0 >= 8.8) on a higher
// oscillator low.
func WeakMomentumRows() []Row {
	return []Row{
		{Close: 9.6, Low: 9.4, Diff: -0.45, DEA: -0.35, MACD: -0.20, MA24: 10, MA52: 12},
		{Close: 9.2, Low: 9.0, Diff: -0.50, DEA: -0.40, MACD: -0.20, MA24: 10, MA52: 12},
		{Close: 9.3, Low: 9.1, Diff: -0.40, DEA: -0.38, MACD: -0.05, MA24: 10, MA52: 12},
	}
}

// WithHistogram returns a copy of rows whose MACD column is set to h.
func WithHistogram(rows []Row, h float64) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		r.MACD = h
		out[i] = r
	}
	return out
}

// AboveZero never takes either MACD line below zero.
func AboveZero(n int) []core.Bar {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{Close: 12 + float64(i)*0.1, Low: 11.8, Diff: 0.3, DEA: 0.2, MACD: 0.2, MA24: 11, MA52: 10}
	}
	return Bars(rows)
}
