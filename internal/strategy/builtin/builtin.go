// Package builtin lists the strategies shipped with the screener.
package builtin

import (
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/newthinker/stockscreen/internal/strategy/breakout"
	"github.com/newthinker/stockscreen/internal/strategy/doublebottom"
	"github.com/newthinker/stockscreen/internal/strategy/pullback"
	"github.com/newthinker/stockscreen/internal/strategy/trend"
)

// All returns fresh instances of every built-in strategy.
func All() []strategy.Strategy {
	var out []strategy.Strategy
	for _, v := range pullback.Variants() {
		out = append(out, pullback.New(v))
	}
	out = append(out,
		breakout.NewMA52(),
		breakout.NewMA60(),
		doublebottom.New(),
		doublebottom.NewHidden(),
		trend.New(),
	)
	return out
}

// Register adds every built-in strategy to e.
func Register(e *strategy.Engine) {
	for _, s := range All() {
		e.Register(s)
	}
}
