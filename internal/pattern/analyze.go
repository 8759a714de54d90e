package pattern

import (
	"github.com/newthinker/stockscreen/internal/core"
	"go.uber.org/zap/zapcore"
)

// Analysis is the result of running the segmentation pipeline on one series.
type Analysis struct {
	Crossings Crossings
	Periods   []Period
	// Reference is the index into Periods of the lowest-oscillator period, -1 if none.
	Reference int
}

// Latest returns the most recent period.
func (a Analysis) Latest() (Period, bool) {
	if len(a.Periods) == 0 {
		return Period{}, false
	}
	return a.Periods[len(a.Periods)-1], true
}

// Analyze runs FindCrossings, BuildPeriods and Classify over a cleaned series.
// An Analysis with no periods and a nil error means the latest bar is outside
// the below-zero regime.
func Analyze(bars []core.Bar, rule HiddenRule) (Analysis, error) {
	if len(bars) == 0 {
		return Analysis{Reference: -1}, core.ErrEmptySeries
	}

	c, err := FindCrossings(bars)
	if err != nil {
		return Analysis{Crossings: c, Reference: -1}, err
	}

	periods := BuildPeriods(bars, c)
	ref := Classify(periods, rule)

	return Analysis{Crossings: c, Periods: periods, Reference: ref}, nil
}

// MarshalLogObject lets a period be logged with zap.Object.
func (p Period) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("status", p.Status.String())
	enc.AddInt("start", p.StartIndex)
	enc.AddString("start_date", p.StartTime.Format(core.DateLayout))
	enc.AddInt("end", p.EndIndex)
	enc.AddString("end_date", p.EndTime.Format(core.DateLayout))
	enc.AddFloat64("lowest_price", p.LowestPrice.Value)
	enc.AddString("lowest_price_date", p.LowestPrice.Time.Format(core.DateLayout))
	enc.AddFloat64("lowest_diff", p.LowestDiff.Value)
	enc.AddFloat64("lowest_dea", p.LowestDEA.Value)
	enc.AddFloat64("lowest_macd", p.LowestHistogram.Value)
	enc.AddString("deviate", p.Deviate.String())
	return nil
}

// MarshalLogObject lets crossings be logged with zap.Object.
func (c Crossings) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("dea", c.DEA)
	enc.AddInt("diff", c.Diff)
	enc.AddInt("price", c.Price)
	return nil
}
