// Package collector fetches instrument lists and raw bars from market data
// vendors.
package collector

import (
	"context"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Delay is the pause between consecutive requests.
	Delay time.Duration
	Extra map[string]any
}

// Collector defines the interface for data collectors
type Collector interface {
	// Metadata
	Name() string
	SupportedMarkets() []core.Market

	// Lifecycle
	Init(cfg Config) error

	// Data fetching
	FetchUniverse(ctx context.Context) ([]core.Instrument, error)
	FetchHistory(ctx context.Context, code string, kind core.PeriodKind, start, end time.Time) (core.Series, error)
}
