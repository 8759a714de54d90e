package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/stretchr/testify/assert"
)

func liquidBar() core.Bar {
	return core.Bar{
		Close: 10, Low: 9.8, High: 10.2,
		MA5: 10, MA10: 10, MA20: 10, MA24: 10, MA30: 10, MA52: 10, MA60: 10,
		TurnoverRate: 3.5, VolumeRatio: 1.5,
	}
}

func TestLiquid_ThresholdBoundary(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.TurnoverRateThreshold = 3.0
	cfg.VolumeRatioThreshold = 1.0

	tests := []struct {
		name     string
		turnover float64
		ratio    float64
		kind     core.PeriodKind
		want     bool
	}{
		{"equal turnover fails", 3.0, 1.5, core.PeriodDaily, false},
		{"one tick above passes", 3.01, 1.5, core.PeriodDaily, true},
		{"below turnover fails", 2.9, 1.5, core.PeriodDaily, false},
		{"equal volume ratio fails", 3.5, 1.0, core.PeriodDaily, false},
		{"weekly is checked", 2.9, 1.5, core.PeriodWeekly, false},
		{"intraday skips the check", 2.9, 0.5, core.PeriodMin30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := liquidBar()
			b.TurnoverRate = tt.turnover
			b.VolumeRatio = tt.ratio
			assert.Equal(t, tt.want, Liquid(cfg, tt.kind, b))
		})
	}
}

func TestWeeklyConfirms(t *testing.T) {
	on := DefaultFilterConfig()
	off := on
	off.EnableWeeklyConfirmation = false

	weekly := liquidBar()
	weekly.Close, weekly.MA52, weekly.DEA = 12, 10, 0.3

	assert.True(t, WeeklyConfirms(off, nil), "disabled confirmation always passes")
	assert.False(t, WeeklyConfirms(on, nil), "missing weekly bar fails")
	assert.True(t, WeeklyConfirms(on, &weekly))

	negative := weekly
	negative.DEA = -0.1
	assert.False(t, WeeklyConfirms(on, &negative))

	under := weekly
	under.Close = 9
	assert.False(t, WeeklyConfirms(on, &under))

	// a year of weekly history warms MA52 long before MA60
	young := core.Bar{Close: 12, MA52: 11, DEA: 0.3,
		MA60: math.NaN(), TurnoverRate: math.NaN(), VolumeRatio: math.NaN()}
	assert.True(t, WeeklyConfirms(on, &young))

	cold := young
	cold.DEA = math.NaN()
	assert.False(t, WeeklyConfirms(on, &cold))
}

func TestRules_Combinators(t *testing.T) {
	b := liquidBar()
	b.MA5, b.MA10, b.MA24 = 11, 10.5, 10

	assert.True(t, Descending(MA5, MA10, MA24)(b))
	assert.False(t, Descending(MA24, MA10)(b))
	assert.True(t, Between(MA24, MA5)(b))
	assert.True(t, All()(b), "empty All passes")
	assert.False(t, Any()(b), "empty Any fails")
	assert.True(t, Any(Below(MA5, MA24), Above(MA5, MA24))(b))
	assert.True(t, All(nil, HistogramNegative, nil)(core.Bar{MACD: -1}))
}

func TestBelowMA5(t *testing.T) {
	cfg := DefaultFilterConfig()
	assert.Nil(t, BelowMA5(cfg))

	cfg.RequireBelowMA5 = true
	r := BelowMA5(cfg)
	assert.True(t, r(core.Bar{Close: 9, MA5: 10}))
	assert.False(t, r(core.Bar{Close: 10, MA5: 10}))
}

func TestScreen(t *testing.T) {
	cfg := DefaultFilterConfig()

	_, d, ok := Screen(cfg, Input{})
	assert.False(t, ok)
	assert.Equal(t, "empty series", d.Reason)

	b := liquidBar()
	b.MA60 = math.NaN()
	_, _, ok = Screen(cfg, Input{Series: core.Series{Bars: []core.Bar{b}}})
	assert.False(t, ok, "incomplete bar must be rejected")

	_, _, ok = Screen(cfg, Input{Kind: core.PeriodDaily, Series: core.Series{Bars: []core.Bar{liquidBar()}}})
	assert.True(t, ok)
}

func TestFilterConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultFilterConfig().Validate())

	bad := DefaultFilterConfig()
	bad.BreakoutTolerance = 2
	assert.True(t, errors.Is(bad.Validate(), core.ErrConfigInvalid))

	bad = DefaultFilterConfig()
	bad.TurnoverRateThreshold = -1
	assert.Error(t, bad.Validate())
}

func TestFingerprint(t *testing.T) {
	cfg := DefaultFilterConfig()

	a := Fingerprint("above_zero_ma52_pullback", core.PeriodDaily, cfg, map[string]any{"x": 1.50})
	b := Fingerprint("above_zero_ma52_pullback", core.PeriodDaily, cfg, map[string]any{"x": 1.5})
	assert.Equal(t, a, b, "fingerprint must be stable")
	assert.Len(t, a, 36)

	changed := cfg
	changed.TurnoverRateThreshold = 3.1
	assert.NotEqual(t, a, Fingerprint("above_zero_ma52_pullback", core.PeriodDaily, changed, map[string]any{"x": 1.5}))
	assert.NotEqual(t, a, Fingerprint("above_zero_ma52_pullback", core.PeriodWeekly, cfg, map[string]any{"x": 1.5}))
	assert.NotEqual(t, a, Fingerprint("ma_bull_stack", core.PeriodDaily, cfg, map[string]any{"x": 1.5}))
}
