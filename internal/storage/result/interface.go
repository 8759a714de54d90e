// Package result persists screening passes, one row per (date, code,
// parameter fingerprint).
package result

import (
	"context"

	"github.com/newthinker/stockscreen/internal/core"
)

// Store defines the interface for result persistence.
type Store interface {
	// Save persists a result. Saving the same (date, code, fingerprint) twice
	// is a no-op; inserted reports whether a new row was written.
	Save(ctx context.Context, r core.FilterResult) (inserted bool, err error)

	// List retrieves results matching the filter ordered by date, strategy, code.
	List(ctx context.Context, filter ListFilter) ([]core.FilterResult, error)

	// Dates returns the distinct result dates, newest first.
	Dates(ctx context.Context) ([]string, error)
}

// ListFilter defines criteria for listing results.
type ListFilter struct {
	Date     string
	Strategy string
	Kind     core.PeriodKind
	Code     string
	Limit    int
	Offset   int
}

func (f ListFilter) matches(r core.FilterResult) bool {
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.Strategy != "" && r.Strategy != f.Strategy {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.Code != "" && r.Code != f.Code {
		return false
	}
	return true
}

type key struct {
	date, code, fingerprint string
}

func keyOf(r core.FilterResult) key {
	return key{r.Date, r.Code, r.Fingerprint}
}
