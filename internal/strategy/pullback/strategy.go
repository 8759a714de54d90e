// Package pullback implements the pullback-to-moving-average strategies above
// and below the MACD zero axis.
package pullback

import (
	"fmt"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/strategy"
)

// Variant fixes which moving averages bound the pullback.
type Variant struct {
	Name        string
	Description string
	// AboveZero selects the above-zero family, which also needs weekly confirmation.
	AboveZero bool
	Rule      strategy.Rule
}

var (
	// AboveZeroMA52: histogram positive, ma52 <= close <= ma24, ma52 < ma5 < ma24.
	AboveZeroMA52 = Variant{
		Name:        "above_zero_ma52_pullback",
		Description: "Pullback to MA52 above the zero axis",
		AboveZero:   true,
		Rule: strategy.All(
			strategy.HistogramPositive,
			strategy.Between(strategy.MA52, strategy.MA24),
			strategy.Below(strategy.MA5, strategy.MA24),
			strategy.Above(strategy.MA5, strategy.MA52),
		),
	}

	// AboveZeroMA24: histogram positive, ma24 <= close <= ma10, ma24 < ma5 < ma10.
	AboveZeroMA24 = Variant{
		Name:        "above_zero_ma24_pullback",
		Description: "Pullback to MA24 above the zero axis",
		AboveZero:   true,
		Rule: strategy.All(
			strategy.HistogramPositive,
			strategy.Between(strategy.MA24, strategy.MA10),
			strategy.Below(strategy.MA5, strategy.MA10),
			strategy.Above(strategy.MA5, strategy.MA24),
		),
	}

	// AboveZeroMA10: histogram positive, ma10 <= close <= ma5, ma5 > ma10 > ma24.
	AboveZeroMA10 = Variant{
		Name:        "above_zero_ma10_pullback",
		Description: "Pullback to MA10 above the zero axis",
		AboveZero:   true,
		Rule: strategy.All(
			strategy.HistogramPositive,
			strategy.Between(strategy.MA10, strategy.MA5),
			strategy.Descending(strategy.MA5, strategy.MA10, strategy.MA24),
		),
	}

	// BelowZeroMA24: histogram and diff negative, ma24 <= close <= ma52,
	// ma5 > ma24 and ma24 < ma52.
	BelowZeroMA24 = Variant{
		Name:        "below_zero_ma24_pullback",
		Description: "Pullback to MA24 below the zero axis",
		Rule: strategy.All(
			strategy.HistogramNegative,
			strategy.DiffNegative,
			strategy.Between(strategy.MA24, strategy.MA52),
			strategy.Above(strategy.MA5, strategy.MA24),
			strategy.Below(strategy.MA24, strategy.MA52),
		),
	}

	// BelowZeroMA52: histogram and diff negative, ma60 <= close <= ma52, ma60 < ma52.
	BelowZeroMA52 = Variant{
		Name:        "below_zero_ma52_pullback",
		Description: "Pullback to MA60 under MA52 below the zero axis",
		Rule: strategy.All(
			strategy.HistogramNegative,
			strategy.DiffNegative,
			strategy.Between(strategy.MA60, strategy.MA52),
			strategy.Below(strategy.MA60, strategy.MA52),
		),
	}
)

// Variants lists every built-in pullback variant.
func Variants() []Variant {
	return []Variant{AboveZeroMA52, AboveZeroMA24, AboveZeroMA10, BelowZeroMA24, BelowZeroMA52}
}

// Pullback is a strategy for one Variant.
type Pullback struct {
	v Variant
}

// New creates a pullback strategy for v
func New(v Variant) *Pullback {
	return &Pullback{v: v}
}

func (p *Pullback) Name() string {
	return p.v.Name
}

func (p *Pullback) Description() string {
	return p.v.Description
}

func (p *Pullback) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{MinBars: 1, Weekly: p.v.AboveZero}
}

func (p *Pullback) Init(cfg strategy.Config) error {
	return nil
}

func (p *Pullback) Evaluate(cfg strategy.FilterConfig, in strategy.Input) strategy.Decision {
	b, d, ok := strategy.Screen(cfg, in)
	if !ok {
		return d
	}

	if !strategy.All(p.v.Rule, strategy.BelowMA5(cfg))(b) {
		return strategy.Reject("moving average pattern not matched")
	}
	if p.v.AboveZero && !strategy.WeeklyConfirms(cfg, in.Weekly) {
		return strategy.Reject("weekly trend not confirmed")
	}

	return strategy.Accept(reason(p.v, b))
}

func reason(v Variant, b core.Bar) string {
	return fmt.Sprintf("%s: close %.2f ma5 %.2f ma10 %.2f ma24 %.2f ma52 %.2f macd %.3f",
		v.Name, b.Close, b.MA5, b.MA10, b.MA24, b.MA52, b.MACD)
}
