package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gocrystal/gocrystal/internal/config"
	"github.com/gocrystal/gocrystal/internal/ledger"
)

func newStatusCommand(load func() (*config.Config, *slog.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show all recorded stage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			store, err := ledger.Open(cfg.Paths.WorkDir)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded in", store.Path())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
			return nil
		},
	}
}
