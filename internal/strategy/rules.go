package strategy

import (
	"github.com/newthinker/stockscreen/internal/core"
)

// Rule is one condition on the latest bar.
type Rule func(b core.Bar) bool

// All passes when every non-nil rule passes.
func All(rules ...Rule) Rule {
	return func(b core.Bar) bool {
		for _, r := range rules {
			if r == nil {
				continue
			}
			if !r(b) {
				return false
			}
		}
		return true
	}
}

// Any passes when at least one non-nil rule passes.
func Any(rules ...Rule) Rule {
	return func(b core.Bar) bool {
		for _, r := range rules {
			if r == nil {
				continue
			}
			if r(b) {
				return true
			}
		}
		return false
	}
}

// Column selects one value of a bar.
type Column func(b core.Bar) float64

func Close(b core.Bar) float64 { return b.Close }
func MA5(b core.Bar) float64   { return b.MA5 }
func MA10(b core.Bar) float64  { return b.MA10 }
func MA20(b core.Bar) float64  { return b.MA20 }
func MA24(b core.Bar) float64  { return b.MA24 }
func MA30(b core.Bar) float64  { return b.MA30 }
func MA52(b core.Bar) float64  { return b.MA52 }
func MA60(b core.Bar) float64  { return b.MA60 }

// Between passes when lo <= close <= hi.
func Between(lo, hi Column) Rule {
	return func(b core.Bar) bool {
		return lo(b) <= b.Close && b.Close <= hi(b)
	}
}

// Below passes when a < b.
func Below(a, b Column) Rule {
	return func(bar core.Bar) bool { return a(bar) < b(bar) }
}

// Above passes when a > b.
func Above(a, b Column) Rule {
	return func(bar core.Bar) bool { return a(bar) > b(bar) }
}

// Descending passes when each column is strictly above the next.
func Descending(cols ...Column) Rule {
	return func(b core.Bar) bool {
		for i := 1; i < len(cols); i++ {
			if !(cols[i-1](b) > cols[i](b)) {
				return false
			}
		}
		return true
	}
}

func HistogramPositive(b core.Bar) bool { return b.MACD > 0 }
func HistogramNegative(b core.Bar) bool { return b.MACD < 0 }
func DiffNegative(b core.Bar) bool      { return b.Diff < 0 }
func MACDAboveZero(b core.Bar) bool     { return b.Diff > 0 && b.DEA > 0 }

// BelowMA5 is the optional close < MA5 condition of the pullback families.
func BelowMA5(cfg FilterConfig) Rule {
	if !cfg.RequireBelowMA5 {
		return nil
	}
	return func(b core.Bar) bool { return b.Close < b.MA5 }
}

// Liquid applies the turnover and volume ratio thresholds. Both comparisons
// are strict; intraday series skip the check.
func Liquid(cfg FilterConfig, kind core.PeriodKind, b core.Bar) bool {
	if kind.IsIntraday() {
		return true
	}
	return b.TurnoverRate > cfg.TurnoverRateThreshold && b.VolumeRatio > cfg.VolumeRatioThreshold
}

// WeeklyConfirms checks the weekly trend when weekly confirmation is on: the
// latest weekly close above its MA52 with a positive weekly signal line. Only
// those three columns need to be warm.
func WeeklyConfirms(cfg FilterConfig, weekly *core.Bar) bool {
	if !cfg.EnableWeeklyConfirmation {
		return true
	}
	if weekly == nil || !weekly.WeeklyReady() {
		return false
	}
	return weekly.Close > weekly.MA52 && weekly.DEA > 0
}

// Screen runs the checks shared by every strategy and returns the latest bar
// when they pass.
func Screen(cfg FilterConfig, in Input) (core.Bar, Decision, bool) {
	b, ok := in.Latest()
	if !ok {
		return b, Reject("empty series"), false
	}
	if !b.Complete() {
		return b, Reject("incomplete latest bar"), false
	}
	if !Liquid(cfg, in.Kind, b) {
		return b, Reject("turnover or volume ratio below threshold"), false
	}
	return b, Decision{}, true
}
