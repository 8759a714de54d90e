package main

import (
	"context"
	"fmt"

	"github.com/newthinker/stockscreen/internal/app"
	"github.com/spf13/cobra"
)

var fetchCodes []string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the universe and its daily and weekly bars",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchCodes, "code", nil, "fetch only these codes")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(fetchCodes) > 0 {
		cfg.Collector.Universe = fetchCodes
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	stop := controlSignals(a.Gate(), log)
	defer stop()

	stats, err := a.Fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("instruments %d, series saved %d, failed %d\n", stats.Instruments, stats.Series, stats.Failed)
	if stats.Cancelled {
		fmt.Println("fetch cancelled")
	}
	return nil
}
