// Package notifier publishes screening summaries to external channels.
package notifier

import (
	"context"

	"github.com/newthinker/stockscreen/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Params map[string]any
}

// Summary is the outcome of one strategy run as seen by a notifier.
type Summary struct {
	RunID     string
	Strategy  string
	Kind      core.PeriodKind
	Date      string
	Passed    []core.Instrument
	Evaluated int
	Skipped   int
	Cancelled bool
}

// Notifier defines the interface for run notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Notify publishes one run summary
	Notify(ctx context.Context, s Summary) error
}
