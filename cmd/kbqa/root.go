// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/kbqa/internal/config"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/metrics"
)

var (
	configPath string

	// cfg is loaded by the root command before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "kbqa",
	Short: "Recipe knowledge-graph question answering",
	Long: `kbqa trains and serves a memory-attention model that answers recipe
questions by ranking candidate answers drawn from a knowledge graph.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("write metrics textfile: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: $KBQA_CONFIG or ./config.yaml)")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithKoanf()
	}
	if err != nil {
		return err
	}

	logging.Init(cfg.LoggingConfig())
	logging.Debug().
		Str("config", configPath).
		Str("device", cfg.Device).
		Int64("seed", cfg.Seed).
		Msg("Configuration loaded")
	return nil
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("Command failed")
		return err
	}
	return nil
}
