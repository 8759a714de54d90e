// Package scheduler runs the daily fetch-and-screen job after market close.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/newthinker/stockscreen/internal/config"
	"github.com/newthinker/stockscreen/internal/core"
	"go.uber.org/zap"
)

// Job is the work run on every trading day.
type Job func(ctx context.Context) error

// Scheduler triggers a Job once per weekday at a fixed local time.
type Scheduler struct {
	cron   *gocron.Scheduler
	at     string
	job    Job
	logger *zap.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	runs   int
}

// New creates a scheduler from cfg. The job is not registered until Start.
func New(cfg config.ScheduleConfig, job Job, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if job == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("schedule job"))
	}
	if _, err := time.Parse("15:04", cfg.At); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule.at must be HH:MM, got %q", cfg.At))
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = "Local"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()

	return &Scheduler{
		cron:   cron,
		at:     cfg.At,
		job:    job,
		logger: logger,
	}, nil
}

// Start registers the daily job and starts the scheduler in the background.
// Jobs run with a context derived from ctx; cancelling ctx or calling Stop
// interrupts a job in flight.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.Every(1).Day().At(s.at).Do(s.run); err != nil {
		return fmt.Errorf("scheduling daily job: %w", err)
	}
	s.cron.StartAsync()

	s.logger.Info("scheduler started",
		zap.String("at", s.at),
		zap.String("timezone", s.cron.Location().String()),
		zap.Time("next_run", s.NextRun()),
	)
	return nil
}

// Stop halts the scheduler and cancels a job in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// NextRun returns the next trigger time, zero when nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	_, t := s.cron.NextRun()
	return t
}

// Runs returns how many times the job has been run.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunNow runs the job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.execute(ctx, time.Now().In(s.cron.Location()))
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().In(s.cron.Location())
	if !TradingDay(now) {
		s.logger.Info("skipping non-trading day", zap.String("date", now.Format(core.DateLayout)))
		return
	}
	if err := s.execute(ctx, now); err != nil {
		s.logger.Error("scheduled job failed", zap.Error(err))
	}
}

func (s *Scheduler) execute(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	start := time.Now()
	s.logger.Info("scheduled job started", zap.String("date", now.Format(core.DateLayout)))
	err := s.job(ctx)
	s.logger.Info("scheduled job finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

// TradingDay reports whether t falls on a weekday. Exchange holidays are not
// known here; a holiday run finds no new bars and screens the previous day.
func TradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}
