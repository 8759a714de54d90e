package pattern

import (
	"math"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

// PeriodStatus is the lifecycle state of a unit adjustment period.
type PeriodStatus int

const (
	// StatusInProgress: price has not reclaimed MA24 since the period opened.
	StatusInProgress PeriodStatus = iota
	// StatusCompleted: price reclaimed MA24 and later fell back below it.
	StatusCompleted
	// StatusConfirmedExtension: price reclaimed MA24 and is still at or above it.
	StatusConfirmedExtension
)

func (s PeriodStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusConfirmedExtension:
		return "confirmed_extension"
	default:
		return "unknown"
	}
}

// Extreme is the lowest reading of one quantity inside a period.
type Extreme struct {
	Value float64
	Index int
	Time  time.Time
}

func newExtreme() Extreme {
	return Extreme{Value: math.Inf(1), Index: -1}
}

// observe keeps the first occurrence on ties.
func (e *Extreme) observe(v float64, i int, t time.Time) {
	if v < e.Value {
		e.Value, e.Index, e.Time = v, i, t
	}
}

// Period is one unit adjustment period.
type Period struct {
	Status PeriodStatus

	StartIndex int
	StartTime  time.Time
	// EndIndex is the bar that closed the period: the bar where price fell back
	// below MA24 (which also opens the next period) or the last bar of the series.
	EndIndex int
	EndTime  time.Time

	// Seed is only set on the first period.
	Seed *Crossings

	LowestPrice     Extreme
	LowestDiff      Extreme
	LowestDEA       Extreme
	LowestHistogram Extreme

	Deviate DeviateStatus
}

func newPeriod(bars []core.Bar, start int) *Period {
	return &Period{
		Status:          StatusInProgress,
		StartIndex:      start,
		StartTime:       bars[start].Time,
		EndIndex:        -1,
		LowestPrice:     newExtreme(),
		LowestDiff:      newExtreme(),
		LowestDEA:       newExtreme(),
		LowestHistogram: newExtreme(),
	}
}

func (p *Period) observe(i int, b core.Bar) {
	p.LowestPrice.observe(b.Low, i, b.Time)
	p.LowestDiff.observe(b.Diff, i, b.Time)
	p.LowestDEA.observe(b.DEA, i, b.Time)
	p.LowestHistogram.observe(b.MACD, i, b.Time)
}

func (p *Period) close(i int, t time.Time) {
	p.EndIndex = i
	p.EndTime = t
}

// BelowZeroRegime reports whether the latest bar has both MACD lines under the
// zero axis with MA24 beneath MA52. BuildPeriods requires it.
func BelowZeroRegime(b core.Bar) bool {
	return b.Diff < 0 && b.DEA < 0 && b.MA24 < b.MA52
}

// BuildPeriods partitions bars from the signal down-cross onward into unit
// adjustment periods. It returns nil when the latest bar is not in a
// below-zero regime or the crossing index is out of range.
func BuildPeriods(bars []core.Bar, c Crossings) []Period {
	if len(bars) == 0 || c.DEA < 0 || c.DEA >= len(bars) {
		return nil
	}
	if !BelowZeroRegime(bars[len(bars)-1]) {
		return nil
	}

	seed := c
	cur := newPeriod(bars, c.DEA)
	cur.Seed = &seed

	var (
		periods  []*Period
		appended bool
	)
	push := func() {
		if !appended {
			periods = append(periods, cur)
			appended = true
		}
	}

	last := len(bars) - 1
	for i := c.DEA; i <= last; i++ {
		b := bars[i]

		if cur.Status == StatusConfirmedExtension && b.Close < b.MA24 {
			cur.Status = StatusCompleted
			cur.close(i, b.Time)
			push()

			cur = newPeriod(bars, i)
			appended = false
		}

		cur.observe(i, b)

		if cur.Status == StatusInProgress && b.Close >= b.MA24 {
			cur.Status = StatusConfirmedExtension
			push()
		}

		if i == last {
			if b.Close >= b.MA24 {
				cur.Status = StatusConfirmedExtension
			}
			cur.close(i, b.Time)
			push()
		}
	}

	out := make([]Period, len(periods))
	for i, p := range periods {
		out[i] = *p
	}
	return out
}
