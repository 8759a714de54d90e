package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/stockscreen/internal/app"
	"github.com/newthinker/stockscreen/internal/screen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	screenStrategies []string
	screenKinds      []string
	screenDate       string
	screenCode       string
	screenTrace      bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen the stored universe",
	Long: `Run strategies over every stored instrument and save the pass lists.

SIGINT stops the run at the next instrument and keeps the partial results.
SIGUSR1 pauses the run and SIGUSR2 resumes it.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringSliceVarP(&screenStrategies, "strategy", "s", nil, "strategies to run (default all enabled)")
	screenCmd.Flags().StringSliceVarP(&screenKinds, "kind", "k", nil, "period kinds, e.g. day,week")
	screenCmd.Flags().StringVar(&screenDate, "date", "", "evaluate as of YYYY-MM-DD")
	screenCmd.Flags().StringVar(&screenCode, "code", "", "screen a single instrument")
	screenCmd.Flags().BoolVar(&screenTrace, "trace", false, "log every segmented period")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(screenKinds) > 0 {
		cfg.Screen.Kinds = screenKinds
	}
	if screenDate != "" {
		cfg.Screen.TargetDate = screenDate
	}
	if screenCode != "" {
		cfg.Screen.TargetInstrument = screenCode
	}
	if screenTrace {
		cfg.Screen.VerboseTrace = true
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := controlSignals(a.Gate(), log)
	defer stop()

	reports, err := a.Screen(ctx, screenStrategies)
	printReports(reports)
	return err
}

// controlSignals maps process signals onto gate.
func controlSignals(gate *screen.Gate, log *zap.Logger) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				switch sig {
				case syscall.SIGUSR1:
					log.Info("pausing")
					gate.Pause()
				case syscall.SIGUSR2:
					log.Info("resuming")
					gate.Resume()
				default:
					log.Info("cancelling, partial results will be kept", zap.String("signal", sig.String()))
					gate.Cancel()
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func printReports(reports []screen.Report) {
	for _, rep := range reports {
		status := ""
		if rep.Cancelled {
			status = " (cancelled)"
		}
		fmt.Printf("%s %-4s %-32s passed %4d of %4d, skipped %d%s\n",
			rep.Date, rep.Kind, rep.Strategy, len(rep.Passed), rep.Evaluated, rep.Skipped, status)
		for _, inst := range rep.Passed {
			fmt.Printf("    %s %s\n", inst.Code, inst.Name)
		}
	}
}
