// Package app wires configuration, storage, collectors, strategies and the
// screening runner into one application.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newthinker/stockscreen/internal/collector"
	"github.com/newthinker/stockscreen/internal/collector/eastmoney"
	"github.com/newthinker/stockscreen/internal/config"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/export"
	"github.com/newthinker/stockscreen/internal/metrics"
	"github.com/newthinker/stockscreen/internal/notifier"
	"github.com/newthinker/stockscreen/internal/notifier/telegram"
	"github.com/newthinker/stockscreen/internal/notifier/webhook"
	"github.com/newthinker/stockscreen/internal/screen"
	"github.com/newthinker/stockscreen/internal/storage"
	"github.com/newthinker/stockscreen/internal/storage/result"
	"github.com/newthinker/stockscreen/internal/storage/series"
	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/newthinker/stockscreen/internal/strategy/builtin"
	"go.uber.org/zap"
)

// FetchStats summarises one data refresh.
type FetchStats struct {
	Instruments int
	Series      int
	Failed      int
	Cancelled   bool
}

// App is the main application orchestrator
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *sqlx.DB
	series     series.Store
	results    result.Store
	writer     *export.Writer
	collectors *collector.Registry
	strategies *strategy.Engine
	notifiers  *notifier.Registry
	metrics    *metrics.Registry
	gate       *screen.Gate
	runner     *screen.Runner

	mu      sync.Mutex
	running bool
	now     func() time.Time
}

// New opens storage and builds every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		collectors: collector.NewRegistry(),
		strategies: strategy.NewEngine(logger),
		notifiers:  notifier.NewRegistry(),
		metrics:    metrics.NewRegistry(),
		gate:       screen.NewGate(),
		now:        time.Now,
	}
	if err := a.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	bars, err := series.NewSQLiteStore(ctx, a.db)
	if err != nil {
		return err
	}
	a.series = bars
	if a.cfg.Storage.CacheSize > 0 {
		cached, err := series.NewCachedStore(bars, a.cfg.Storage.CacheSize)
		if err != nil {
			return err
		}
		a.series = cached
	}

	if a.results, err = result.NewSQLiteStore(ctx, a.db); err != nil {
		return err
	}

	if a.writer, err = newWriter(a.cfg.Export, a.logger); err != nil {
		return err
	}

	builtin.Register(a.strategies)
	if err := a.strategies.Configure(a.cfg.StrategyConfigs()); err != nil {
		return err
	}

	em := eastmoney.New(a.logger)
	if err := em.Init(collector.Config{
		BaseURL: a.cfg.Collector.BaseURL,
		Timeout: a.cfg.Collector.Timeout,
	}); err != nil {
		return err
	}
	a.collectors.Register(em)

	if err := a.initNotifiers(); err != nil {
		return err
	}

	a.runner = screen.NewRunner(a.strategies, screen.NewStoreSource(a.series), a.cfg.ToFilterConfig(), a.logger)
	a.runner.SetCheckpoint(a.gate)
	a.runner.SetMetrics(a.metrics)
	a.runner.AddSink(screen.NewResultSink(a.results))
	if a.writer != nil {
		a.runner.AddSink(screen.NewExportSink(a.writer))
	}
	if a.notifiers.Len() > 0 {
		a.runner.AddSink(screen.NewNotifySink(a.notifiers))
	}
	return nil
}

func (a *App) initNotifiers() error {
	for name, nc := range a.cfg.Notifiers {
		if !nc.Enabled {
			continue
		}
		var n notifier.Notifier
		switch name {
		case "webhook":
			n = webhook.New("", nil)
		case "telegram":
			n = telegram.New("", "")
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier %q", name))
		}
		if err := n.Init(notifier.Config{Params: nc.Params}); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		if err := a.notifiers.Register(n); err != nil {
			return err
		}
	}
	return nil
}

func newWriter(cfg config.ExportConfig, logger *zap.Logger) (*export.Writer, error) {
	var (
		target export.Target
		err    error
	)
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		target, err = export.NewLocalFS(cfg.Path)
	case "s3":
		target, err = export.NewS3(export.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown export type %q", cfg.Type))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, err)
	}
	return export.NewWriter(target, cfg.Encoding, logger)
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

// RegisterCollector adds a collector to the app
func (a *App) RegisterCollector(c collector.Collector) {
	a.collectors.Register(c)
}

// Strategies returns the configured strategy engine.
func (a *App) Strategies() *strategy.Engine { return a.strategies }

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Results returns the result store.
func (a *App) Results() result.Store { return a.results }

// Series returns the bar store.
func (a *App) Series() series.Store { return a.series }

// Writer returns the export writer, nil when exporting is disabled.
func (a *App) Writer() *export.Writer { return a.writer }

// Gate returns the pause and cancel control of running jobs.
func (a *App) Gate() *screen.Gate { return a.gate }

// Screen runs the named strategies, or every enabled strategy when names is
// empty, for each configured period kind.
func (a *App) Screen(ctx context.Context, names []string) ([]screen.Report, error) {
	if err := a.begin(); err != nil {
		return nil, err
	}
	defer a.end()

	kinds, err := a.cfg.Kinds()
	if err != nil {
		return nil, err
	}
	target, err := a.cfg.TargetDate()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = a.strategies.Names()
	}

	return a.runner.RunAll(ctx, names, kinds, screen.Options{
		TargetDate:       target,
		TargetInstrument: a.cfg.Screen.TargetInstrument,
		VerboseTrace:     a.cfg.Screen.VerboseTrace,
	})
}

// Fetch refreshes the universe and the daily and weekly bars of every
// instrument from the configured collector. Per-instrument failures are
// logged and counted.
func (a *App) Fetch(ctx context.Context) (FetchStats, error) {
	var stats FetchStats
	if err := a.begin(); err != nil {
		return stats, err
	}
	defer a.end()

	c, err := a.collectors.Resolve(a.cfg.Collector.Provider)
	if err != nil {
		return stats, err
	}

	universe, err := a.universe(ctx, c)
	if err != nil {
		return stats, err
	}
	if err := a.series.SaveInstruments(ctx, universe); err != nil {
		return stats, err
	}
	stats.Instruments = len(universe)
	a.metrics.SetUniverseSize(len(universe))

	end := a.now()
	start := end.AddDate(0, 0, -a.cfg.Collector.HistoryDays)
	a.logger.Info("fetch started",
		zap.String("collector", c.Name()),
		zap.Int("instruments", len(universe)),
		zap.String("from", start.Format(core.DateLayout)),
	)

	for _, inst := range universe {
		if err := a.gate.Wait(ctx); err != nil {
			stats.Cancelled = true
			break
		}
		for _, kind := range []core.PeriodKind{core.PeriodDaily, core.PeriodWeekly} {
			if err := a.fetchSeries(ctx, c, inst.Code, kind, start, end); err != nil {
				stats.Failed++
				a.metrics.RecordInstrumentError(inst.Code)
				a.logger.Warn("fetch failed",
					zap.String("code", inst.Code),
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
				continue
			}
			stats.Series++
		}
	}

	a.logger.Info("fetch finished",
		zap.Int("series", stats.Series),
		zap.Int("failed", stats.Failed),
		zap.Bool("cancelled", stats.Cancelled),
	)
	return stats, nil
}

func (a *App) universe(ctx context.Context, c collector.Collector) ([]core.Instrument, error) {
	if codes := a.cfg.Collector.Universe; len(codes) > 0 {
		out := make([]core.Instrument, len(codes))
		for i, code := range codes {
			out[i] = core.Instrument{Code: code, Market: eastmoney.MarketOf(code)}
		}
		return out, nil
	}
	universe, err := c.FetchUniverse(ctx)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	return universe, nil
}

func (a *App) fetchSeries(ctx context.Context, c collector.Collector, code string, kind core.PeriodKind, start, end time.Time) error {
	s, err := c.FetchHistory(ctx, code, kind, start, end)
	a.metrics.RecordFetch(string(kind), err == nil)
	if err != nil {
		return err
	}
	if s.Len() == 0 {
		return core.ErrNoData
	}
	return a.series.Save(ctx, s)
}

// Daily refreshes the data and screens it. It is the scheduled job.
func (a *App) Daily(ctx context.Context) error {
	stats, err := a.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if stats.Cancelled {
		return screen.ErrCancelled
	}
	if _, err := a.Screen(ctx, nil); err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	return nil
}

func (a *App) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("a job is already running")
	}
	a.running = true
	return nil
}

func (a *App) end() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()

	stats := map[string]any{
		"running":    running,
		"paused":     a.gate.Paused(),
		"collectors": a.collectors.Names(),
		"strategies": len(a.strategies.GetAll()),
		"notifiers":  a.notifiers.Len(),
		"export":     a.writer != nil,
	}
	if c, ok := a.series.(*series.CachedStore); ok {
		stats["cached_series"] = c.Len()
	}
	return stats
}
