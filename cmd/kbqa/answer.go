// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/kbqa/internal/kbqa"
	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/store"
)

var answerCmd = &cobra.Command{
	Use:   "answer [request.json]",
	Short: "Answer one question request",
	Long: `Reads an answer request as JSON from the given file, or from stdin when
no file (or "-") is given, and prints the result as JSON. A request that
fails still prints its result, with a nonzero err_code and err_msg.`,
	Example: `  echo '{"question":"what georgian dish has no tomato","topic_entities":["georgian"],
        "persona":{"ingredient_dislikes":["tomato"]}}' | kbqa answer`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	req, err := readRequest(cmd, args)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StoreConfig(), logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	if !c.restored {
		logging.Warn().Str("model_file", cfg.Paths.ModelFile).Msg("No checkpoint found, answering with an untrained model")
	}

	encoder := kbqa.NewEncoder(c.vocab, cfg.Model.QuerySize)
	svc, err := kbqa.NewService(cfg.AnswerConfig(), st, c.agent, encoder, logging.Logger())
	if err != nil {
		return err
	}

	res := svc.Answer(cmd.Context(), req)
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if !res.OK() {
		return fmt.Errorf("answer failed with code %d (%s): %s", res.Code, res.Code, res.Message)
	}
	return nil
}

func readRequest(cmd *cobra.Command, args []string) (*kbqa.Request, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0]) //nolint:gosec // path given by the operator
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		defer func() { _ = f.Close() }() //nolint:errcheck // read-only file
		r = f
	}

	var req kbqa.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}
