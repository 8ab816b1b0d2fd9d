package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gocrystal/gocrystal/internal/config"
	"github.com/gocrystal/gocrystal/internal/ledger"
	"github.com/gocrystal/gocrystal/internal/logging"
	"github.com/gocrystal/gocrystal/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var structFlag string
	var seedFlag int64

	rootCmd := &cobra.Command{
		Use:           "gocrystal",
		Short:         "Doped-crystal DFT and STEM simulation pipeline",
		Long: `gocrystal builds a doped supercell from a CIF unit cell, drives an
external DFT engine through a static calculation and a relaxation,
analyzes interatomic distances and simulates the HAADF-STEM image of
the relaxed structure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&structFlag, "struct", "", "input CIF (overrides paths.struct_file)")
	rootCmd.PersistentFlags().Int64Var(&seedFlag, "seed", 0, "substitution seed (overrides supercell.seed)")

	load := func() (*config.Config, *slog.Logger, error) {
		cfg, _, _, err := config.Load(configFlag)
		if err != nil {
			return nil, nil, err
		}
		if structFlag != "" {
			cfg.Paths.StructFile = structFlag
		}
		if seedFlag != 0 {
			cfg.Supercell.Seed = seedFlag
		}
		return cfg, logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level), nil
	}

	stage := func(use, short string, run func(*pipeline.Pipeline, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := load()
				if err != nil {
					return err
				}
				return withPipeline(cmd.Context(), cfg, log, run)
			},
		}
	}

	rootCmd.AddCommand(
		stage("supercell", "Build the doped supercell from the input CIF",
			(*pipeline.Pipeline).Supercell),
		stage("static", "Preconverge the electronic structure of the supercell",
			(*pipeline.Pipeline).Static),
		stage("relax", "Relax the positions starting from the static checkpoint",
			(*pipeline.Pipeline).Relax),
		stage("distances", "Report nearest-neighbor distances in the relaxed structure",
			(*pipeline.Pipeline).Distances),
		stage("image", "Simulate the HAADF-STEM image of the relaxed structure",
			(*pipeline.Pipeline).Image),
		stage("run", "Run every stage in order, stopping at the first failure",
			(*pipeline.Pipeline).All),
		newStatusCommand(load),
		newConfigCommand(&configFlag),
	)

	return rootCmd
}

// withPipeline wires the lock, ledger and signal handling around a
// stage run.
func withPipeline(ctx context.Context, cfg *config.Config, log *slog.Logger, run func(*pipeline.Pipeline, context.Context) error) error {
	lock, err := ledger.NewLock(cfg.Paths.WorkDir)
	if err != nil {
		return err
	}
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(p, ctx)
}

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configFlag
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	})
	return cmd
}
