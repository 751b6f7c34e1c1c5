package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yanun0323/errors"

	"papertrade/internal/catalog"
	"papertrade/internal/mdg"
	"papertrade/internal/ops"
	"papertrade/internal/schema"
)

func newSimulateCmd(load func() (ops.Loaded, error)) *cobra.Command {
	var ticks int
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the price walk offline on a virtual clock and print each tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ticks <= 0 {
				return errors.Errorf("ticks must be > 0, got %d", ticks)
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			book, err := catalog.New(cfg.Instruments...)
			if err != nil {
				return err
			}

			clock := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
			sim, err := mdg.NewSimulator(book, cfg.Simulator, mdg.WithClock(func() time.Time { return clock }))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < ticks; i++ {
				updated, err := sim.Tick(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "tick %d %s\n", i+1, clock.Format(time.RFC3339))
				for _, inst := range updated {
					fmt.Fprintf(out, "  %-5s %12s %8s%%\n",
						inst.Symbol,
						schema.FormatMoney(inst.Price, cfg.Currency),
						inst.ChangePercent.StringFixed(2))
				}
				clock = clock.Add(sim.Interval())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 10, "number of ticks to simulate")
	return cmd
}
