// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package main is the kbqa command line.
//
// # Commands
//
//	kbqa train     train on the train split, checkpoint on validation F1 improvement
//	kbqa predict   evaluate the test split at every configured test margin
//	kbqa answer    answer one JSON request (file or stdin) with the trained model
//	kbqa import    bulk-load candidate bundles into the badger store
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (KBQA_*, LOG_*)
//   - Config file (--config, KBQA_CONFIG or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the command context. Training stops between
// batches without writing a partial checkpoint.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
