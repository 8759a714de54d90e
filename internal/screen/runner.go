// Package screen runs strategies over an instrument universe and hands the
// pass lists to result sinks.
package screen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/metrics"
	"github.com/newthinker/stockscreen/internal/strategy"
	"go.uber.org/zap"
)

// Options control one run.
type Options struct {
	Kind core.PeriodKind
	// TargetDate evaluates as of the end of that day. Zero means latest.
	TargetDate time.Time
	// TargetInstrument restricts the universe to one code.
	TargetInstrument string
	// VerboseTrace logs every segmented period at debug level.
	VerboseTrace bool
}

// Report is the outcome of running one strategy over the universe.
type Report struct {
	RunID       string
	Strategy    string
	Kind        core.PeriodKind
	Date        string
	Fingerprint string
	Passed      []core.Instrument
	Evaluated   int
	Skipped     int
	Cancelled   bool
	Started     time.Time
	Finished    time.Time
}

// Runner evaluates strategies instrument by instrument.
type Runner struct {
	engine     *strategy.Engine
	source     Source
	filter     strategy.FilterConfig
	checkpoint Checkpoint
	sinks      []Sink
	metrics    *metrics.Registry
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner creates a runner over source using the strategies of engine.
func NewRunner(engine *strategy.Engine, source Source, filter strategy.FilterConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:     engine,
		source:     source,
		filter:     filter,
		checkpoint: contextCheckpoint{},
		logger:     logger,
		now:        time.Now,
	}
}

// SetCheckpoint sets the checkpoint polled before each instrument.
func (r *Runner) SetCheckpoint(c Checkpoint) {
	if c == nil {
		c = contextCheckpoint{}
	}
	r.checkpoint = c
}

// AddSink adds a sink that receives every report.
func (r *Runner) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// SetMetrics enables metric recording.
func (r *Runner) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Run evaluates the named strategy over the universe. Instrument-level
// failures are logged and skipped. On cancellation the passes gathered so far
// are kept, delivered and returned with Cancelled set. The returned error is
// non-nil only when the run could not start or a sink failed.
func (r *Runner) Run(ctx context.Context, name string, opts Options) (Report, error) {
	if opts.Kind == "" {
		opts.Kind = core.PeriodDaily
	}

	s, ok := r.engine.Get(name)
	if !ok {
		return Report{}, core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("%s", name))
	}

	rep := Report{
		RunID:       uuid.NewString(),
		Strategy:    name,
		Kind:        opts.Kind,
		Fingerprint: strategy.Fingerprint(name, opts.Kind, r.filter, r.engine.Params(name)),
		Passed:      []core.Instrument{},
		Started:     r.now(),
	}
	log := r.logger.With(
		zap.String("run_id", rep.RunID),
		zap.String("strategy", name),
		zap.String("kind", string(opts.Kind)),
	)

	universe, err := r.universe(ctx, opts)
	if err != nil {
		return Report{}, err
	}
	if r.metrics != nil {
		r.metrics.SetUniverseSize(len(universe))
	}
	log.Info("screening started", zap.Int("universe", len(universe)))

	var latest time.Time
	for _, inst := range universe {
		if err := r.checkpoint.Wait(ctx); err != nil {
			rep.Cancelled = true
			log.Info("screening cancelled", zap.Error(err), zap.Int("passed", len(rep.Passed)))
			break
		}

		pass, asOf, err := r.evaluate(ctx, s, inst, opts, log)
		rep.Evaluated++
		if err != nil {
			rep.Skipped++
			r.recordSkip(log, inst.Code, err)
			continue
		}
		if asOf.After(latest) {
			latest = asOf
		}
		if r.metrics != nil {
			r.metrics.RecordEvaluation(name, string(opts.Kind), pass)
		}
		if pass {
			rep.Passed = append(rep.Passed, inst)
		}
	}

	rep.Date = reportDate(opts.TargetDate, latest, rep.Started)
	rep.Finished = r.now()

	status := "completed"
	if rep.Cancelled {
		status = "cancelled"
	}
	if r.metrics != nil {
		r.metrics.RecordRun(status, rep.Finished.Sub(rep.Started).Seconds())
	}
	log.Info("screening finished",
		zap.String("status", status),
		zap.String("date", rep.Date),
		zap.Int("evaluated", rep.Evaluated),
		zap.Int("skipped", rep.Skipped),
		zap.Int("passed", len(rep.Passed)),
	)

	return rep, r.deliver(context.WithoutCancel(ctx), rep)
}

// RunAll runs every named strategy for every kind and stops early once the
// run is cancelled.
func (r *Runner) RunAll(ctx context.Context, names []string, kinds []core.PeriodKind, opts Options) ([]Report, error) {
	var (
		reports []Report
		errs    []error
	)
	for _, kind := range kinds {
		for _, name := range names {
			o := opts
			o.Kind = kind
			rep, err := r.Run(ctx, name, o)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", name, kind, err))
			}
			if rep.RunID != "" {
				reports = append(reports, rep)
			}
			if rep.Cancelled {
				return reports, errors.Join(errs...)
			}
		}
	}
	return reports, errors.Join(errs...)
}

func (r *Runner) universe(ctx context.Context, opts Options) ([]core.Instrument, error) {
	all, err := r.source.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading universe: %w", err)
	}
	if opts.TargetInstrument == "" {
		return all, nil
	}
	for _, inst := range all {
		if inst.Code == opts.TargetInstrument {
			return []core.Instrument{inst}, nil
		}
	}
	return nil, core.WrapError(core.ErrInstrumentNotFound, fmt.Errorf("%s", opts.TargetInstrument))
}

// evaluate runs one strategy on one instrument and returns the time of the
// last bar it saw.
func (r *Runner) evaluate(ctx context.Context, s strategy.Strategy, inst core.Instrument, opts Options, log *zap.Logger) (bool, time.Time, error) {
	series, err := r.source.Series(ctx, inst.Code, opts.Kind, opts.TargetDate)
	if err != nil {
		return false, time.Time{}, err
	}
	if req := s.RequiredData(); series.Len() < req.MinBars {
		return false, time.Time{}, core.WrapError(core.ErrEmptySeries,
			fmt.Errorf("%d bars, need %d", series.Len(), req.MinBars))
	}

	in := strategy.Input{Code: inst.Code, Kind: opts.Kind, Series: series}
	if s.RequiredData().Weekly && r.filter.EnableWeeklyConfirmation {
		// a missing weekly bar leaves Weekly nil, which fails confirmation
		if b, err := r.source.WeeklyBar(ctx, inst.Code, opts.TargetDate); err == nil {
			in.Weekly = &b
		}
	}

	d, err := r.engine.Evaluate(s.Name(), r.filter, in)
	if err != nil {
		return false, time.Time{}, err
	}

	if opts.VerboseTrace {
		trace(log, inst.Code, d)
	}

	last, _ := series.Last()
	return d.Pass, last.Time, nil
}

func (r *Runner) recordSkip(log *zap.Logger, code string, err error) {
	if r.metrics != nil {
		r.metrics.RecordInstrumentError(code)
	}
	switch {
	case errors.Is(err, core.ErrNoData),
		errors.Is(err, core.ErrEmptySeries),
		errors.Is(err, core.ErrMissingColumn),
		errors.Is(err, core.ErrUnsortedSeries):
		log.Debug("instrument skipped", zap.String("code", code), zap.Error(err))
	default:
		log.Warn("instrument failed", zap.String("code", code), zap.Error(err))
	}
}

func (r *Runner) deliver(ctx context.Context, rep Report) error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Deliver(ctx, rep); err != nil {
			r.logger.Error("delivering report failed",
				zap.String("run_id", rep.RunID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func trace(log *zap.Logger, code string, d strategy.Decision) {
	fields := []zap.Field{
		zap.String("code", code),
		zap.Bool("pass", d.Pass),
		zap.String("reason", d.Reason),
	}
	if d.Analysis == nil {
		log.Debug("evaluated", fields...)
		return
	}

	log.Debug("evaluated", append(fields,
		zap.Object("crossings", d.Analysis.Crossings),
		zap.Int("periods", len(d.Analysis.Periods)),
		zap.Int("reference", d.Analysis.Reference),
	)...)
	for i, p := range d.Analysis.Periods {
		log.Debug("period", zap.String("code", code), zap.Int("n", i), zap.Object("period", p))
	}
}

// reportDate is the target date, else the latest bar date seen, else the
// run start.
func reportDate(target, latest, started time.Time) string {
	switch {
	case !target.IsZero():
		return target.Format(core.DateLayout)
	case !latest.IsZero():
		return latest.Format(core.DateLayout)
	}
	return started.Format(core.DateLayout)
}
