package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	sma := SMA([]float64{10, 11, 12, 13, 14, 15}, 3)

	assert.Len(t, sma, 6)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.Equal(t, []float64{11, 12, 13, 14}, sma[2:])
}

func TestSMA_NotEnoughData(t *testing.T) {
	sma := SMA([]float64{10, 11}, 5)

	assert.Len(t, sma, 2)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
	assert.Empty(t, SMA(nil, 5))
}

func TestEMA(t *testing.T) {
	ema := EMA([]float64{10, 11, 12, 13, 14, 15}, 3)

	assert.True(t, math.IsNaN(ema[1]))
	assert.Equal(t, 11.0, ema[2], "first value is the simple average")
	assert.Equal(t, 12.0, ema[3])
	for i := 3; i < len(ema); i++ {
		assert.Greater(t, ema[i], ema[i-1])
	}
}

func TestEMA_SkipsLeadingNaN(t *testing.T) {
	values := []float64{math.NaN(), math.NaN(), 2, 4, 6, 8}
	ema := EMA(values, 2)

	assert.True(t, math.IsNaN(ema[2]))
	assert.Equal(t, 3.0, ema[3])
	assert.True(t, almostEqual(ema[4], 3+(6-3)*2.0/3, 1e-12))

	short := EMA([]float64{math.NaN(), 1}, 2)
	assert.True(t, math.IsNaN(short[1]))
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
