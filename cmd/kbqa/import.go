// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/kbqa/internal/logging"
	"github.com/tomtom215/kbqa/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <bundles.jsonl>",
	Short: "Load candidate bundles into the store",
	Long: `Reads one candidate bundle per line (topic, record, candidates) and
writes them to the badger store at store.dir, replacing bundles with the
same topic.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0]) //nolint:gosec // path given by the operator
	if err != nil {
		return fmt.Errorf("open bundles: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only file

	st, err := store.Open(cfg.StoreConfig(), logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	n, err := st.Import(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d bundles into %s\n", n, cfg.Store.Dir)
	return nil
}
