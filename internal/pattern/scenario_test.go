package pattern_test

import (
	"testing"

	"github.com/newthinker/stockscreen/internal/pattern"
	"github.com/newthinker/stockscreen/internal/pattern/patterntest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_SingleReclaim(t *testing.T) {
	a, err := pattern.Analyze(patterntest.SingleConfirmed(), pattern.HiddenRule{})
	require.NoError(t, err)
	require.Len(t, a.Periods, 1)

	assert.Equal(t, pattern.StatusConfirmedExtension, a.Periods[0].Status)
	assert.Equal(t, pattern.DeviateHiddenWeakMomentum, a.Periods[0].Deviate)
}

func TestScenario_TwoPeriods(t *testing.T) {
	tests := []struct {
		name string
		rows []patterntest.Row
		rule pattern.HiddenRule
		want pattern.DeviateStatus
	}{
		{"divergence", patterntest.DivergenceRows(), pattern.HiddenRule{}, pattern.DeviateDivergence},
		{"hidden divergence", patterntest.WithHistogram(patterntest.DivergenceRows(), 0), pattern.HiddenRule{}, pattern.DeviateHiddenDivergence},
		{"strict hidden divergence", patterntest.WithHistogram(patterntest.DivergenceRows(), 0), pattern.StrictHiddenRule, pattern.DeviateDivergence},
		{"weak momentum", patterntest.WeakMomentumRows(), pattern.HiddenRule{}, pattern.DeviateWeakMomentum},
		{"hidden weak momentum", patterntest.WithHistogram(patterntest.WeakMomentumRows(), 0.1), pattern.HiddenRule{}, pattern.DeviateHiddenWeakMomentum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := pattern.Analyze(patterntest.TwoPeriods(tt.rows), tt.rule)
			require.NoError(t, err)
			require.Len(t, a.Periods, 2)

			assert.Equal(t, 0, a.Reference)
			assert.Equal(t, pattern.DeviateNone, a.Periods[0].Deviate)

			latest, ok := a.Latest()
			require.True(t, ok)
			assert.Equal(t, tt.want, latest.Deviate)
		})
	}
}
