// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

// Package logging provides centralized zerolog-based logging for kbqa.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("epoch", 3).Float64("f1", 0.71).Msg("Epoch finished")
//	logging.Ctx(ctx).Warn().Msg("No candidates for topic")
//
// Components take a zerolog.Logger by value and add their own
// "component" field, so tests can pass zerolog.Nop() or a buffer-backed
// logger from NewTestLogger.
//
// # Request IDs
//
// Each answer request carries a request ID in its context
// (EnsureRequestID). Ctx attaches it to every line logged for that request.
//
// # Badger
//
// NewBadgerLogger adapts a zerolog.Logger to badger's Logger interface so
// store internals log through the same pipeline. Badger's Info output is
// demoted to debug.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
