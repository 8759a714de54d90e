// Package doublebottom implements the zero-axis double bottom strategies on
// top of the unit adjustment period segmentation.
package doublebottom

import (
	"errors"
	"fmt"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/pattern"
	"github.com/newthinker/stockscreen/internal/strategy"
)

// DoubleBottom passes when the latest period diverges from the reference
// period by at least minDeviate.
type DoubleBottom struct {
	name        string
	description string
	rule        pattern.HiddenRule
	minDeviate  pattern.DeviateStatus
}

// New creates the base variant: any deviate status above none on the latest period.
func New() *DoubleBottom {
	return &DoubleBottom{
		name:        "zero_axis_double_bottom",
		description: "Divergence or fading momentum between zero-axis periods",
		minDeviate:  pattern.DeviateDivergence,
	}
}

// NewHidden creates the hidden variant: the histogram low of the latest period
// must be strictly above zero and the status one of the hidden ones.
func NewHidden() *DoubleBottom {
	return &DoubleBottom{
		name:        "zero_axis_hidden_bottom",
		description: "Hidden divergence confirmed by a turned histogram",
		rule:        pattern.StrictHiddenRule,
		minDeviate:  pattern.DeviateHiddenWeakMomentum,
	}
}

func (d *DoubleBottom) Name() string {
	return d.name
}

func (d *DoubleBottom) Description() string {
	return d.description
}

func (d *DoubleBottom) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{MinBars: 2}
}

func (d *DoubleBottom) Init(cfg strategy.Config) error {
	if v, ok := cfg.Params["histogram_floor"].(float64); ok {
		d.rule.Floor = v
	}
	if v, ok := cfg.Params["strict_histogram"].(bool); ok {
		d.rule.Strict = v
	}
	if v, ok := cfg.Params["min_deviate"].(int); ok {
		if v < int(pattern.DeviateDivergence) || v > int(pattern.DeviateHiddenDivergence) {
			return fmt.Errorf("min_deviate must be between 1 and 4, got %d", v)
		}
		d.minDeviate = pattern.DeviateStatus(v)
	}
	return nil
}

func (d *DoubleBottom) Evaluate(cfg strategy.FilterConfig, in strategy.Input) strategy.Decision {
	if _, dec, ok := strategy.Screen(cfg, in); !ok {
		return dec
	}

	a, err := pattern.Analyze(in.Series.Bars, d.rule)
	if err != nil {
		if errors.Is(err, core.ErrNoQualifyingSegment) {
			return strategy.Reject("no zero-axis down-cross")
		}
		return strategy.Reject(err.Error())
	}

	latest, ok := a.Latest()
	if !ok {
		dec := strategy.Reject("not in a below-zero regime")
		dec.Analysis = &a
		return dec
	}

	dec := strategy.Decision{Analysis: &a}
	if latest.Deviate < d.minDeviate {
		dec.Reason = fmt.Sprintf("latest period deviate %s below %s", latest.Deviate, d.minDeviate)
		return dec
	}

	dec.Pass = true
	dec.Reason = fmt.Sprintf("latest of %d periods: %s, low %.2f on %s",
		len(a.Periods), latest.Deviate, latest.LowestPrice.Value,
		latest.LowestPrice.Time.Format(core.DateLayout))
	return dec
}
