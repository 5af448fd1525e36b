// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger implements badger.Logger using zerolog as the backend.
// Badger reports routine compaction and value-log activity at info level,
// so its info messages are demoted to debug.
//
// Usage:
//
//	opts := badger.DefaultOptions(path)
//	opts.Logger = logging.NewBadgerLogger(logger)
type BadgerLogger struct {
	logger zerolog.Logger
}

// NewBadgerLogger creates a badger logger writing to logger with a
// component field of "badger".
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBadgerLogger(logger zerolog.Logger) *BadgerLogger {
	return &BadgerLogger{
		logger: WithComponent(logger, "badger"),
	}
}

// Errorf logs at error level.
func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(trimNewline(format), args...)
}

// Warningf logs at warn level.
func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(trimNewline(format), args...)
}

// Infof logs at debug level.
func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(trimNewline(format), args...)
}

// Debugf logs at trace level.
func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(trimNewline(format), args...)
}

// badger terminates most format strings with a newline
func trimNewline(format string) string {
	return strings.TrimRight(format, "\n")
}
