package core

import (
	"math"
	"sort"
	"time"
)

// Market represents a trading market
type Market string

const (
	MarketSH Market = "SH"
	MarketSZ Market = "SZ"
	MarketBJ Market = "BJ"
)

// PeriodKind is the bar interval of a series
type PeriodKind string

const (
	PeriodDaily  PeriodKind = "day"
	PeriodWeekly PeriodKind = "week"
	PeriodMin1   PeriodKind = "1m"
	PeriodMin5   PeriodKind = "5m"
	PeriodMin15  PeriodKind = "15m"
	PeriodMin30  PeriodKind = "30m"
	PeriodMin60  PeriodKind = "60m"
)

// IsIntraday reports whether bars of this kind carry a time of day.
func (k PeriodKind) IsIntraday() bool {
	switch k {
	case PeriodMin1, PeriodMin5, PeriodMin15, PeriodMin30, PeriodMin60:
		return true
	}
	return false
}

// Valid reports whether k is a known period kind.
func (k PeriodKind) Valid() bool {
	return k == PeriodDaily || k == PeriodWeekly || k.IsIntraday()
}

// Instrument is one member of the screening universe
type Instrument struct {
	Code   string
	Name   string
	Market Market
}

// Bar is one row of an indicator series. Moving averages are NaN until
// enough history exists.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	Diff float64 // MACD fast line
	DEA  float64 // MACD signal line
	MACD float64 // histogram, 2*(diff-dea)

	MA5  float64
	MA10 float64
	MA20 float64
	MA24 float64
	MA30 float64
	MA52 float64
	MA60 float64

	TurnoverRate float64
	VolumeRatio  float64
}

// Date returns the bar date formatted as YYYY-MM-DD.
func (b Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// Complete reports whether every column consumed by the screening engine is finite.
func (b Bar) Complete() bool {
	for _, v := range []float64{
		b.Close, b.Low, b.High, b.Diff, b.DEA, b.MACD,
		b.MA5, b.MA10, b.MA20, b.MA24, b.MA30, b.MA52, b.MA60,
		b.TurnoverRate, b.VolumeRatio,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// WeeklyReady reports whether the columns read by weekly confirmation (close,
// MA52 and DEA) are finite. Weekly history is often too short to warm MA60.
func (b Bar) WeeklyReady() bool {
	for _, v := range []float64{b.Close, b.MA52, b.DEA} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DateLayout is the canonical date format used across storage and export.
const DateLayout = "2006-01-02"

// Series is the time-ordered bar sequence for one (instrument, period kind) pair.
type Series struct {
	Code string
	Kind PeriodKind
	Bars []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Validate checks ordering and that the series is usable at all.
func (s Series) Validate() error {
	if s.Code == "" {
		return WrapError(ErrMissingColumn, errString("code"))
	}
	if len(s.Bars) == 0 {
		return ErrEmptySeries
	}
	if !sort.SliceIsSorted(s.Bars, func(i, j int) bool {
		return s.Bars[i].Time.Before(s.Bars[j].Time)
	}) {
		return WrapError(ErrUnsortedSeries, errString(s.Code))
	}
	return nil
}

// Clean returns a copy of s holding only complete bars, sorted ascending.
func (s Series) Clean() Series {
	return s.Filter(Bar.Complete)
}

// Filter returns the bars of s for which keep holds, sorted by time.
func (s Series) Filter(keep func(Bar) bool) Series {
	out := Series{Code: s.Code, Kind: s.Kind, Bars: make([]Bar, 0, len(s.Bars))}
	for _, b := range s.Bars {
		if keep(b) {
			out.Bars = append(out.Bars, b)
		}
	}
	sort.SliceStable(out.Bars, func(i, j int) bool {
		return out.Bars[i].Time.Before(out.Bars[j].Time)
	})
	return out
}

// AsOf returns the prefix of s whose bars fall on or before the end of day t.
func (s Series) AsOf(t time.Time) Series {
	cutoff := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
	n := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(cutoff)
	})
	return Series{Code: s.Code, Kind: s.Kind, Bars: s.Bars[:n]}
}

// FilterResult records one instrument passing one strategy run.
type FilterResult struct {
	Date        string
	Code        string
	Fingerprint string
	Kind        PeriodKind
	Strategy    string
	RunID       string
	CreatedAt   time.Time
}

type errString string

func (e errString) Error() string { return string(e) }
