package trend

import (
	"fmt"

	"github.com/newthinker/stockscreen/internal/strategy"
)

// BullStack passes when the moving averages are stacked short over long and
// both MACD lines are above zero.
type BullStack struct {
	rule strategy.Rule
}

// New creates a new bull stack strategy
func New() *BullStack {
	return &BullStack{
		rule: strategy.All(
			strategy.Descending(strategy.MA5, strategy.MA10, strategy.MA20, strategy.MA30, strategy.MA60),
			strategy.MACDAboveZero,
		),
	}
}

func (s *BullStack) Name() string {
	return "ma_bull_stack"
}

func (s *BullStack) Description() string {
	return "MA5 > MA10 > MA20 > MA30 > MA60 above the zero axis"
}

func (s *BullStack) RequiredData() strategy.DataRequirements {
	return strategy.DataRequirements{MinBars: 1}
}

func (s *BullStack) Init(cfg strategy.Config) error {
	return nil
}

func (s *BullStack) Evaluate(cfg strategy.FilterConfig, in strategy.Input) strategy.Decision {
	b, d, ok := strategy.Screen(cfg, in)
	if !ok {
		return d
	}
	if !s.rule(b) {
		return strategy.Reject("moving averages not stacked")
	}
	return strategy.Accept(fmt.Sprintf("ma5 %.2f > ma10 %.2f > ma20 %.2f > ma30 %.2f > ma60 %.2f",
		b.MA5, b.MA10, b.MA20, b.MA30, b.MA60))
}
