package indicator

import (
	"math"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

// MACD parameters used by Enrich.
const (
	FastPeriod   = 12
	SlowPeriod   = 26
	SignalPeriod = 9
)

// VolumeRatioWindow is the number of prior bars averaged for the volume ratio.
const VolumeRatioWindow = 5

// Enrich fills the moving average, MACD and volume ratio columns of bars in
// place. Bars must be sorted by time. Columns stay NaN until enough history
// exists, so early bars fail core.Bar.Complete and are dropped by Series.Clean.
func Enrich(bars []core.Bar) {
	n := len(bars)
	if n == 0 {
		return
	}

	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	columns := []struct {
		period int
		set    func(b *core.Bar, v float64)
	}{
		{5, func(b *core.Bar, v float64) { b.MA5 = v }},
		{10, func(b *core.Bar, v float64) { b.MA10 = v }},
		{20, func(b *core.Bar, v float64) { b.MA20 = v }},
		{24, func(b *core.Bar, v float64) { b.MA24 = v }},
		{30, func(b *core.Bar, v float64) { b.MA30 = v }},
		{52, func(b *core.Bar, v float64) { b.MA52 = v }},
		{60, func(b *core.Bar, v float64) { b.MA60 = v }},
	}
	for _, c := range columns {
		ma := SMA(closes, c.period)
		for i := range bars {
			c.set(&bars[i], ma[i])
		}
	}

	diff, dea, hist := MACD(closes, FastPeriod, SlowPeriod, SignalPeriod)
	for i := range bars {
		bars[i].Diff, bars[i].DEA, bars[i].MACD = diff[i], dea[i], hist[i]
		bars[i].VolumeRatio = volumeRatio(bars, i)
	}
}

func volumeRatio(bars []core.Bar, i int) float64 {
	if i < VolumeRatioWindow {
		return math.NaN()
	}
	var sum int64
	for _, b := range bars[i-VolumeRatioWindow : i] {
		sum += b.Volume
	}
	if sum == 0 {
		return math.NaN()
	}
	return float64(bars[i].Volume) / (float64(sum) / VolumeRatioWindow)
}

// Weekly resamples daily bars into ISO weeks. Each weekly bar carries the time
// of the last trading day of its week and the summed volume and turnover.
// Indicator columns are left for Enrich.
func Weekly(daily []core.Bar) []core.Bar {
	var out []core.Bar
	var year, week int
	for _, b := range daily {
		y, w := b.Time.ISOWeek()
		if len(out) == 0 || y != year || w != week {
			year, week = y, w
			out = append(out, core.Bar{
				Time:   b.Time,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,

				TurnoverRate: b.TurnoverRate,
			})
			continue
		}
		cur := &out[len(out)-1]
		cur.Time = b.Time
		cur.Close = b.Close
		cur.High = math.Max(cur.High, b.High)
		cur.Low = math.Min(cur.Low, b.Low)
		cur.Volume += b.Volume
		cur.TurnoverRate += b.TurnoverRate
	}
	return out
}

// WeekStart returns the Monday of t's ISO week at midnight in t's location.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	d := t.AddDate(0, 0, 1-wd)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}
