// Package series stores raw daily and weekly bars per instrument. Indicator
// columns are derived on load and never persisted.
package series

import (
	"context"

	"github.com/newthinker/stockscreen/internal/core"
)

// Store defines the interface for bar persistence.
type Store interface {
	// Universe returns every known instrument ordered by code.
	Universe(ctx context.Context) ([]core.Instrument, error)

	// SaveInstruments upserts instruments into the universe.
	SaveInstruments(ctx context.Context, instruments []core.Instrument) error

	// Load returns the stored bars for (code, kind) ordered by time.
	// core.ErrNoData is returned when nothing is stored.
	Load(ctx context.Context, code string, kind core.PeriodKind) (core.Series, error)

	// Save upserts the bars of s keyed by (code, kind, time).
	Save(ctx context.Context, s core.Series) error
}
