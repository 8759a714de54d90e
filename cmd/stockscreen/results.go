package main

import (
	"context"
	"fmt"

	"github.com/newthinker/stockscreen/internal/app"
	"github.com/newthinker/stockscreen/internal/core"
	"github.com/newthinker/stockscreen/internal/storage/result"
	"github.com/spf13/cobra"
)

var (
	resultsFilter result.ListFilter
	resultsKind   string
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List saved screening results",
	Long:  "List saved screening results. Without --date the dates holding results are listed.",
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resultsFilter.Date, "date", "", "result date YYYY-MM-DD")
	resultsCmd.Flags().StringVar(&resultsFilter.Strategy, "strategy", "", "strategy name")
	resultsCmd.Flags().StringVar(&resultsKind, "kind", "", "period kind")
	resultsCmd.Flags().StringVar(&resultsFilter.Code, "code", "", "instrument code")
	resultsCmd.Flags().IntVar(&resultsFilter.Limit, "limit", 0, "maximum rows")
	resultsCmd.Flags().IntVar(&resultsFilter.Offset, "offset", 0, "rows to skip")

	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	resultsFilter.Kind = core.PeriodKind(resultsKind)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if resultsFilter.Date == "" && resultsFilter.Code == "" && resultsFilter.Strategy == "" {
		dates, err := a.Results().Dates(ctx)
		if err != nil {
			return err
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	}

	rows, err := a.Results().List(ctx, resultsFilter)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%s %-4s %-32s %s\n", r.Date, r.Kind, r.Strategy, r.Code)
	}
	fmt.Printf("%d results\n", len(rows))
	return nil
}
