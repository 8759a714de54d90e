package doublebottom

import (
	"testing"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/pattern"
	"github.com/newthinker/stockscreen/internal/pattern/patterntest"
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(bars []core.Bar) strategy.Input {
	return strategy.Input{
		Code:   "600519",
		Kind:   core.PeriodDaily,
		Series: patterntest.Series("600519", bars),
	}
}

func TestDoubleBottom_AboveZeroSeries(t *testing.T) {
	d := New().Evaluate(strategy.DefaultFilterConfig(), input(patterntest.AboveZero(20)))

	assert.False(t, d.Pass)
	assert.Equal(t, "no zero-axis down-cross", d.Reason)
	assert.Nil(t, d.Analysis)
}

func TestDoubleBottom_Variants(t *testing.T) {
	tests := []struct {
		name     string
		bars     []core.Bar
		strategy *DoubleBottom
		want     bool
	}{
		{"divergence", patterntest.TwoPeriods(patterntest.DivergenceRows()), New(), true},
		{"weak momentum", patterntest.TwoPeriods(patterntest.WeakMomentumRows()), New(), true},
		{"single reclaim", patterntest.SingleConfirmed(), New(), true},
		{"hidden rejects plain divergence", patterntest.TwoPeriods(patterntest.DivergenceRows()), NewHidden(), false},
		{"hidden rejects zero histogram", patterntest.TwoPeriods(patterntest.WithHistogram(patterntest.DivergenceRows(), 0)), NewHidden(), false},
		{"hidden divergence", patterntest.TwoPeriods(patterntest.WithHistogram(patterntest.DivergenceRows(), 0.1)), NewHidden(), true},
		{"hidden weak momentum", patterntest.TwoPeriods(patterntest.WithHistogram(patterntest.WeakMomentumRows(), 0.1)), NewHidden(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.strategy.Evaluate(strategy.DefaultFilterConfig(), input(tt.bars))
			assert.Equal(t, tt.want, d.Pass, d.Reason)
			require.NotNil(t, d.Analysis)
			assert.NotEmpty(t, d.Analysis.Periods)
		})
	}
}

func TestDoubleBottom_Liquidity(t *testing.T) {
	bars := patterntest.TwoPeriods(patterntest.DivergenceRows())
	bars[len(bars)-1].TurnoverRate = 2.9

	cfg := strategy.DefaultFilterConfig()
	cfg.TurnoverRateThreshold = 3.0

	d := New().Evaluate(cfg, input(bars))
	assert.False(t, d.Pass)
	assert.Nil(t, d.Analysis)
}

func TestDoubleBottom_Init(t *testing.T) {
	s := New()
	require.NoError(t, s.Init(strategy.Config{Params: map[string]any{"min_deviate": 4}}))
	assert.Equal(t, pattern.DeviateHiddenDivergence, s.minDeviate)

	d := s.Evaluate(strategy.DefaultFilterConfig(), input(patterntest.TwoPeriods(patterntest.WeakMomentumRows())))
	assert.False(t, d.Pass)

	assert.Error(t, New().Init(strategy.Config{Params: map[string]any{"min_deviate": 5}}))

	h := NewHidden()
	require.NoError(t, h.Init(strategy.Config{Params: map[string]any{"strict_histogram": false}}))
	d = h.Evaluate(strategy.DefaultFilterConfig(), input(patterntest.TwoPeriods(patterntest.WithHistogram(patterntest.DivergenceRows(), 0))))
	assert.True(t, d.Pass, d.Reason)
}
