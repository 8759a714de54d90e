package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/stockscreen/internal/app"
	"github.com/newthinker/stockscreen/internal/metrics"
	"github.com/newthinker/stockscreen/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch and screen every trading day after the close",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run the job once at startup")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := scheduler.New(cfg.Schedule, a.Daily, log)
	if err != nil {
		return err
	}

	var server *http.Server
	if cfg.Metrics.Enabled {
		server = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(a.Metrics(), cfg.Metrics.Path, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("scheduler started", zap.Any("stats", a.GetStats()))
	if scheduleNow {
		go func() {
			if err := sched.RunNow(ctx); err != nil {
				log.Error("initial run failed", zap.Error(err))
			}
		}()
	}
	fmt.Printf("next run at %s\n", sched.NextRun().Format(time.RFC3339))

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	sched.Stop()
	cancel()

	if server == nil {
		return nil
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
	defer done()
	return server.Shutdown(shutdownCtx)
}
