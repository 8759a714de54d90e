package strategy

import (
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/pattern"
)

// Config holds per-strategy configuration
type Config struct {
	Enabled bool
	Params  map[string]any
}

// DataRequirements specifies what data a strategy needs
type DataRequirements struct {
	MinBars int  // Bars of cleaned history needed
	Weekly  bool // Reads the latest weekly bar when weekly confirmation is on
}

// Input is everything a strategy sees for one instrument.
type Input struct {
	Code   string
	Kind   core.PeriodKind
	Series core.Series // cleaned and truncated to the evaluation date
	Weekly *core.Bar   // latest weekly bar, nil when not loaded
}

// Latest returns the most recent bar of the series.
func (in Input) Latest() (core.Bar, bool) {
	return in.Series.Last()
}

// Decision is the outcome of evaluating one strategy on one instrument.
type Decision struct {
	Pass   bool
	Reason string
	// Analysis is set by strategies that run the segmentation pipeline.
	Analysis *pattern.Analysis
}

// Reject returns a failing decision with a reason.
func Reject(reason string) Decision {
	return Decision{Reason: reason}
}

// Accept returns a passing decision with a reason.
func Accept(reason string) Decision {
	return Decision{Pass: true, Reason: reason}
}

// Strategy is one named screening predicate. Evaluate must be a pure
// function of its arguments.
type Strategy interface {
	Name() string
	Description() string
	RequiredData() DataRequirements
	Init(cfg Config) error
	Evaluate(cfg FilterConfig, in Input) Decision
}
