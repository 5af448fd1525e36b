// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/kbqa/internal/dataset"
	"github.com/tomtom215/kbqa/internal/logging"
)

var (
	predictSplit  string
	predictOutput string
	predictJSON   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Evaluate the trained model on a labeled split",
	Long: `Ranks every question of the split with each configured test margin
and reports average precision, recall and F1 against the gold labels.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictSplit, "split", "test", "data split to evaluate: train, valid or test")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "", "write predictions at the first test margin to this JSON file")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "output scores as JSON")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	path := cfg.Paths.Split(predictSplit)
	if path == "" {
		return fmt.Errorf("unknown split %q", predictSplit)
	}
	examples, err := dataset.Load(path)
	if err != nil {
		return fmt.Errorf("load %s split: %w", predictSplit, err)
	}

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	if !c.restored {
		logging.Warn().Str("model_file", cfg.Paths.ModelFile).Msg("No checkpoint found, evaluating an untrained model")
	}

	ctx := cmd.Context()
	scores, err := c.agent.Evaluate(ctx, examples)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if predictOutput != "" {
		preds, err := c.agent.Predict(ctx, examples, cfg.Inference.TestMargins[0])
		if err != nil {
			return fmt.Errorf("predict: %w", err)
		}
		if err := writeJSONFile(predictOutput, preds); err != nil {
			return err
		}
		logging.Info().Str("path", predictOutput).Int("questions", len(preds)).Msg("Wrote predictions")
	}

	if predictJSON {
		data, err := json.MarshalIndent(scores, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal scores: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d questions\n", len(examples))
	for _, s := range scores {
		fmt.Fprintf(cmd.OutOrStdout(), "margin %.2f  precision %.4f  recall %.4f  f1 %.4f\n", s.Margin, s.Precision, s.Recall, s.F1)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
