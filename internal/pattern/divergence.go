package pattern

// DeviateStatus classifies a period against the reference period holding the
// lowest oscillator reading.
type DeviateStatus int

const (
	DeviateNone DeviateStatus = iota
	// DeviateDivergence: lower price low on a higher oscillator low.
	DeviateDivergence
	// DeviateWeakMomentum: no new price low while the oscillator low is higher.
	DeviateWeakMomentum
	// DeviateHiddenWeakMomentum: DeviateWeakMomentum with the histogram already turned.
	DeviateHiddenWeakMomentum
	// DeviateHiddenDivergence: DeviateDivergence with the histogram already turned.
	DeviateHiddenDivergence
)

func (d DeviateStatus) String() string {
	switch d {
	case DeviateNone:
		return "none"
	case DeviateDivergence:
		return "divergence"
	case DeviateWeakMomentum:
		return "weak_momentum"
	case DeviateHiddenWeakMomentum:
		return "hidden_weak_momentum"
	case DeviateHiddenDivergence:
		return "hidden_divergence"
	default:
		return "unknown"
	}
}

// Hidden reports whether d is one of the histogram-confirmed variants.
func (d DeviateStatus) Hidden() bool {
	return d == DeviateHiddenWeakMomentum || d == DeviateHiddenDivergence
}

// HiddenRule decides when a period's lowest histogram confirms a hidden
// variant. The zero value accepts lowest histogram >= 0.
type HiddenRule struct {
	Floor  float64
	Strict bool
}

// StrictHiddenRule requires the lowest histogram to be above zero.
var StrictHiddenRule = HiddenRule{Strict: true}

// Holds reports whether the histogram low h confirms a hidden variant.
func (r HiddenRule) Holds(h float64) bool {
	if r.Strict {
		return h > r.Floor
	}
	return h >= r.Floor
}

// Classify assigns Deviate on periods in place and returns the index of the
// reference period, or -1 when periods is empty. A lone period that has left
// the in-progress state is marked DeviateHiddenWeakMomentum and returned as
// its own reference.
func Classify(periods []Period, rule HiddenRule) int {
	if len(periods) == 0 {
		return -1
	}
	if len(periods) == 1 {
		if periods[0].Status != StatusInProgress {
			periods[0].Deviate = DeviateHiddenWeakMomentum
		}
		return 0
	}

	ref := 0
	for i := 1; i < len(periods); i++ {
		if periods[i].LowestDiff.Value < periods[ref].LowestDiff.Value {
			ref = i
		}
	}

	r := periods[ref]
	for i := ref + 1; i < len(periods); i++ {
		p := &periods[i]
		hidden := rule.Holds(p.LowestHistogram.Value)

		switch {
		case p.LowestPrice.Value >= r.LowestPrice.Value && p.LowestDiff.Value > r.LowestDiff.Value:
			p.Deviate = DeviateWeakMomentum
			if hidden {
				p.Deviate = DeviateHiddenWeakMomentum
			}
		case p.LowestPrice.Value < r.LowestPrice.Value && p.LowestDiff.Value > r.LowestDiff.Value:
			p.Deviate = DeviateDivergence
			if hidden {
				p.Deviate = DeviateHiddenDivergence
			}
		default:
			p.Deviate = DeviateNone
		}
	}
	return ref
}
