// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/kbqa/internal/dataset"
	"github.com/tomtom215/kbqa/internal/logging"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model on the train split",
	Long: `Trains on paths.train_data and validates on paths.valid_data after
every epoch. The checkpoint at paths.model_file is written whenever the
validation F1 improves; training resumes from it when it exists.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	train, err := dataset.Load(cfg.Paths.Split("train"))
	if err != nil {
		return fmt.Errorf("load train split: %w", err)
	}
	valid, err := dataset.Load(cfg.Paths.Split("valid"))
	if err != nil {
		return fmt.Errorf("load valid split: %w", err)
	}
	logging.Info().Int("train", len(train)).Int("valid", len(valid)).Msg("Loaded data splits")

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}

	result, err := c.agent.Train(cmd.Context(), train, valid)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
