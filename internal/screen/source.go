package screen

import (
	"context"
	"errors"
	"time"

	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/indicator"
	"github.com/newthinker/stockscreen/internal/storage/series"
)

// Source supplies the universe and the indicator series of each instrument.
// A non-zero asOf limits every series to bars on or before that date, so a
// historical run sees what a live run on that day would have seen.
type Source interface {
	Universe(ctx context.Context) ([]core.Instrument, error)
	// Series returns the cleaned, enriched series of code for kind.
	Series(ctx context.Context, code string, kind core.PeriodKind, asOf time.Time) (core.Series, error)
	// WeeklyBar returns the latest weekly bar whose confirmation columns are warm.
	WeeklyBar(ctx context.Context, code string, asOf time.Time) (core.Bar, error)
}

// StoreSource reads raw bars from a series store and derives the indicator
// columns on load. Weekly bars are resampled from the daily ones when none
// are stored or when an as-of date cuts a week short.
type StoreSource struct {
	store series.Store
}

// NewStoreSource creates a Source over store.
func NewStoreSource(store series.Store) *StoreSource {
	return &StoreSource{store: store}
}

func (s *StoreSource) Universe(ctx context.Context) ([]core.Instrument, error) {
	return s.store.Universe(ctx)
}

func (s *StoreSource) Series(ctx context.Context, code string, kind core.PeriodKind, asOf time.Time) (core.Series, error) {
	raw, err := s.enriched(ctx, code, kind, asOf)
	if err != nil {
		return core.Series{}, err
	}

	out := raw.Clean()
	if out.Len() == 0 {
		return out, core.ErrEmptySeries
	}
	return out, nil
}

func (s *StoreSource) WeeklyBar(ctx context.Context, code string, asOf time.Time) (core.Bar, error) {
	raw, err := s.enriched(ctx, code, core.PeriodWeekly, asOf)
	if err != nil {
		return core.Bar{}, err
	}

	b, ok := raw.Filter(core.Bar.WeeklyReady).Last()
	if !ok {
		return core.Bar{}, core.ErrEmptySeries
	}
	return b, nil
}

func (s *StoreSource) enriched(ctx context.Context, code string, kind core.PeriodKind, asOf time.Time) (core.Series, error) {
	var (
		raw core.Series
		err error
	)
	if kind == core.PeriodWeekly {
		raw, err = s.weekly(ctx, code, asOf)
	} else {
		raw, err = s.store.Load(ctx, code, kind)
		if err == nil && !asOf.IsZero() {
			raw = raw.AsOf(asOf)
		}
	}
	if err != nil {
		return core.Series{}, err
	}

	if err := raw.Validate(); err != nil {
		return core.Series{}, err
	}
	indicator.Enrich(raw.Bars)
	return raw, nil
}

// weekly returns raw weekly bars. Stored weekly bars carry the date of their
// week's last session, so with an as-of date the weeks are rebuilt from the
// truncated daily bars and the current week ends on asOf.
func (s *StoreSource) weekly(ctx context.Context, code string, asOf time.Time) (core.Series, error) {
	if asOf.IsZero() {
		stored, err := s.store.Load(ctx, code, core.PeriodWeekly)
		if !errors.Is(err, core.ErrNoData) {
			return stored, err
		}
	}

	daily, err := s.store.Load(ctx, code, core.PeriodDaily)
	if err != nil {
		return core.Series{}, err
	}
	if !asOf.IsZero() {
		daily = daily.AsOf(asOf)
	}
	return core.Series{Code: code, Kind: core.PeriodWeekly, Bars: indicator.Weekly(daily.Bars)}, nil
}
