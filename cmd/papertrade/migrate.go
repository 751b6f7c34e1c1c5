package main

import (
	"github.com/spf13/cobra"
	"github.com/yanun0323/logs"

	"papertrade/internal/ops"
)

func newMigrateCmd(load func() (ops.Loaded, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			logs.Infof("migrated, driver: %s", cfg.Store.Driver)
			return nil
		},
	}
}
