// Package breakout implements the breakout-and-retest strategies: price back
// within a small band above a long moving average it recently broke through.
package breakout

import (
	"fmt"

	"github.com/newthinker/stockscreen/internal/strategy"
)

// Retest watches one long moving average.
type Retest struct {
	name    string
	label   string
	long    strategy.Column
	confirm strategy.Rule
	// tolerance overrides FilterConfig.BreakoutTolerance when > 0
	tolerance float64
}

// NewMA52 creates the MA52 retest: ma52 <= close <= ma52*(1+tol) with ma24
// and ma5 both above ma52.
func NewMA52() *Retest {
	return &Retest{
		name:  "ma52_breakout_retest",
		label: "MA52",
		long:  strategy.MA52,
		confirm: strategy.All(
			strategy.Above(strategy.MA24, strategy.MA52),
			strategy.Above(strategy.MA5, strategy.MA52),
		),
	}
}

// NewMA60 creates the MA60 retest: ma60 <= close <= ma60*(1+tol) with ma30
// and ma5 both above ma60.
func NewMA60() *Retest {
	return &Retest{
		name:  "ma60_breakout_retest",
		label: "MA60",
		long:  strategy.MA60,
		confirm: strategy.All(
			strategy.Above(strategy.MA30, strategy.MA60),
			strategy.Above(strategy.MA5, strategy.MA60),
		),
	}
}

func (r *Retest) Name() string {
	return r.name
}

func (r *Retest) Description() string {
	return fmt.Sprintf("Retest of a %s breakout", r.label)
}

func (r *Retest) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{MinBars: 1, Weekly: true}
}

func (r *Retest) Init(cfg strategy.Config) error {
	if tol, ok := cfg.Params["tolerance"].(float64); ok {
		if tol <= 0 || tol > 1 {
			return fmt.Errorf("tolerance must be in (0, 1], got %v", tol)
		}
		r.tolerance = tol
	}
	return nil
}

func (r *Retest) Evaluate(cfg strategy.FilterConfig, in strategy.Input) strategy.Decision {
	b, d, ok := strategy.Screen(cfg, in)
	if !ok {
		return d
	}

	tol := cfg.BreakoutTolerance
	if r.tolerance > 0 {
		tol = r.tolerance
	}

	long := r.long(b)
	if b.Close < long || b.Close > long*(1+tol) {
		return strategy.Reject(fmt.Sprintf("close outside %s retest band", r.label))
	}
	if !r.confirm(b) {
		return strategy.Reject("breakout lost")
	}
	if !strategy.WeeklyConfirms(cfg, in.Weekly) {
		return strategy.Reject("weekly trend not confirmed")
	}

	return strategy.Accept(fmt.Sprintf("close %.2f within %.1f%% above %s %.2f",
		b.Close, tol*100, r.label, long))
}
