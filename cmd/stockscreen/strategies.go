package main

import (
	"fmt"

	"github.com/newthinker/stockscreen/internal/strategy"
	"github.com/newthinker/stockscreen/internal/strategy/builtin"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the enabled strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		engine := strategy.NewEngine(log)
		builtin.Register(engine)
		if err := engine.Configure(cfg.StrategyConfigs()); err != nil {
			return err
		}
		for _, s := range engine.GetAll() {
			fmt.Printf("%-36s %s\n", s.Name(), s.Description())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
