// Package pattern segments an indicator series into unit adjustment periods
// bounded by zero-axis crossings and classifies the divergence between them.
//
// Everything in this package is a pure function of its input bars.
package pattern

import (
	"github.com/newthinker/stockscreen/internal/core"
)

// Crossings holds the most recent down-cross indices found by FindCrossings.
type Crossings struct {
	// DEA is where the signal line went from >= 0 to < 0.
	DEA int
	// Diff is where the fast line went from >= 0 to < 0.
	Diff int
	// Price is where close dropped below MA52 while DEA was still >= 0.
	Price int
}

// FindCrossings walks bars backward from the last index to index 1 and
// returns the most recent signal, oscillator and price down-crosses. The three
// scans are independent and each stops at its own first hit. When any of them
// is missing the series is not in a below-zero regime and
// core.ErrNoQualifyingSegment is returned.
func FindCrossings(bars []core.Bar) (Crossings, error) {
	c := Crossings{DEA: -1, Diff: -1, Price: -1}
	if len(bars) < 2 {
		return c, core.ErrNoQualifyingSegment
	}

	for i := len(bars) - 1; i >= 1; i-- {
		cur, prev := bars[i], bars[i-1]

		if c.DEA < 0 && cur.DEA < 0 && prev.DEA >= 0 {
			c.DEA = i
		}
		if c.Diff < 0 && cur.Diff < 0 && prev.Diff >= 0 {
			c.Diff = i
		}
		if c.Price < 0 && cur.Close < cur.MA52 && prev.Close >= prev.MA52 && cur.DEA >= 0 {
			c.Price = i
		}

		if c.found() {
			break
		}
	}

	if !c.found() {
		return c, core.ErrNoQualifyingSegment
	}
	return c, nil
}

func (c Crossings) found() bool {
	return c.DEA >= 0 && c.Diff >= 0 && c.Price >= 0
}
