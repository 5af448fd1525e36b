// KBQA - Recipe Knowledge-Graph Question Answering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kbqa

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	if len(id1) != 36 {
		t.Errorf("expected UUID length 36, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique request IDs")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %q, want req-123", got)
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx := EnsureRequestID(context.Background())
	id := RequestIDFromContext(ctx)
	if id == "" {
		t.Fatal("expected a generated request ID")
	}

	if got := RequestIDFromContext(EnsureRequestID(ctx)); got != id {
		t.Errorf("EnsureRequestID replaced existing ID %q with %q", id, got)
	}
}

func TestContextWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("component", "answer").Logger()

	ctx := ContextWithLogger(context.Background(), logger)
	ctx = ContextWithRequestID(ctx, "req-456")

	Ctx(ctx).Info().Msg("answered")

	output := buf.String()
	if !strings.Contains(output, `"component":"answer"`) {
		t.Errorf("expected stored logger fields: %s", output)
	}
	if !strings.Contains(output, `"request_id":"req-456"`) {
		t.Errorf("expected request_id in output: %s", output)
	}
}

func TestLoggerFromContext_NoLogger(t *testing.T) {
	logger := LoggerFromContext(context.Background())
	if logger.GetLevel() == zerolog.Disabled {
		t.Error("expected global logger")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(zerolog.New(&buf).With().Str("run", "r1").Logger(), "store")
	logger.Info().Msg("opened")

	output := buf.String()
	if !strings.Contains(output, `"component":"store"`) {
		t.Errorf("expected component in output: %s", output)
	}
	if !strings.Contains(output, `"run":"r1"`) {
		t.Errorf("expected parent fields in output: %s", output)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"soup", 10, "soup"},
		{"tomato soup without garlic", 10, "tomato ..."},
		{"tomato", 2, "to"},
		{"crème brûlée", 8, "crème..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
