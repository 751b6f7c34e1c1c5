package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yanun0323/logs"

	"papertrade/internal/ops"
	"papertrade/internal/store"
	"papertrade/pkg/conn"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logs.Errorf("papertrade: %+v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "papertrade",
		Short:         "Simulated brokerage ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to JSON config (defaults when empty)")

	load := func() (ops.Loaded, error) {
		return ops.Load(configPath)
	}
	root.AddCommand(
		newServeCmd(load, &configPath),
		newMigrateCmd(load),
		newSimulateCmd(load),
		newAssessCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

// openStore connects to the configured database.
func openStore(opt conn.Option) (*store.Gorm, func(), error) {
	client, err := conn.New(opt)
	if err != nil {
		return nil, nil, err
	}
	g, err := store.NewGorm(client.DB())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return g, func() { _ = client.Close() }, nil
}
