package breakout

import (
	"testing"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(b core.Bar) strategy.Input {
	weekly := core.Bar{Close: 12, MA52: 10, DEA: 0.3}
	return strategy.Input{
		Code:   "000001",
		Kind:   core.PeriodDaily,
		Series: core.Series{Code: "000001", Kind: core.PeriodDaily, Bars: []core.Bar{b}},
		Weekly: &weekly,
	}
}

func ma52Bar(close float64) core.Bar {
	return core.Bar{
		Close: close, MA52: 10, MA24: 10.5, MA5: 10.4,
		TurnoverRate: 4, VolumeRatio: 1.5,
	}
}

func TestRetest_MA52Band(t *testing.T) {
	cfg := strategy.DefaultFilterConfig()
	s := NewMA52()

	tests := []struct {
		name  string
		close float64
		want  bool
	}{
		{"on the average", 10, true},
		{"inside band", 10.2, true},
		{"top of band", 10.29, true},
		{"above band", 10.4, false},
		{"below average", 9.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := s.Evaluate(cfg, input(ma52Bar(tt.close)))
			assert.Equal(t, tt.want, d.Pass, d.Reason)
		})
	}
}

func TestRetest_ToleranceParam(t *testing.T) {
	cfg := strategy.DefaultFilterConfig()
	s := NewMA52()

	assert.False(t, s.Evaluate(cfg, input(ma52Bar(10.4))).Pass)

	require.NoError(t, s.Init(strategy.Config{Enabled: true, Params: map[string]any{"tolerance": 0.05}}))
	assert.True(t, s.Evaluate(cfg, input(ma52Bar(10.4))).Pass)

	assert.Error(t, s.Init(strategy.Config{Params: map[string]any{"tolerance": 1.5}}))
	assert.Error(t, s.Init(strategy.Config{Params: map[string]any{"tolerance": 0.0}}))
}

func TestRetest_BreakoutLost(t *testing.T) {
	b := ma52Bar(10.2)
	b.MA24 = 9.9

	d := NewMA52().Evaluate(strategy.DefaultFilterConfig(), input(b))
	assert.False(t, d.Pass)
	assert.Equal(t, "breakout lost", d.Reason)
}

func TestRetest_MA60(t *testing.T) {
	b := core.Bar{
		Close: 10.2, MA60: 10, MA30: 10.5, MA5: 10.4,
		TurnoverRate: 4, VolumeRatio: 1.5,
	}
	cfg := strategy.DefaultFilterConfig()

	assert.True(t, NewMA60().Evaluate(cfg, input(b)).Pass)

	b.TurnoverRate = 2.9
	assert.False(t, NewMA60().Evaluate(cfg, input(b)).Pass)
}

func TestRetest_WeeklyConfirmation(t *testing.T) {
	in := input(ma52Bar(10.2))
	in.Weekly = nil

	assert.False(t, NewMA52().Evaluate(strategy.DefaultFilterConfig(), in).Pass)
}
