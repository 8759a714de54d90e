package trend

import (
	"testing"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/stretchr/testify/assert"
)

func TestBullStack(t *testing.T) {
	b := core.Bar{
		Close: 15.2, MA5: 15, MA10: 14, MA20: 13, MA30: 12, MA60: 11,
		Diff: 0.3, DEA: 0.2, TurnoverRate: 4, VolumeRatio: 1.5,
	}
	in := func(b core.Bar) strategy.Input {
		return strategy.Input{Kind: core.PeriodDaily, Series: core.Series{Code: "300750", Bars: []core.Bar{b}}}
	}
	cfg := strategy.DefaultFilterConfig()
	s := New()

	assert.True(t, s.Evaluate(cfg, in(b)).Pass)

	below := b
	below.DEA = -0.1
	assert.False(t, s.Evaluate(cfg, in(below)).Pass)

	tangled := b
	tangled.MA20 = 14.5
	assert.False(t, s.Evaluate(cfg, in(tangled)).Pass)
}
