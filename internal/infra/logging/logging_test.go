//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := WithStep(WithTgID(WithTraceID(context.Background(), "01HTRACE"), 42), "gender")

	// --- Act ---
	With(ctx, &base).Info().Msg("hello")

	// --- Assert ---
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["trace_id"] != "01HTRACE" || got["tg_id"] != float64(42) || got["step"] != "gender" {
		t.Errorf("missing context fields: %v", got)
	}
	if TraceID(ctx) != "01HTRACE" {
		t.Errorf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("+4915123456789", false); got != "+491...89" {
		t.Errorf("Redact = %q", got)
	}
	if got := Redact("+49151", false); got != "***" {
		t.Errorf("short Redact = %q", got)
	}
	if got := Redact("+4915123456789", true); got != "+4915123456789" {
		t.Errorf("dev Redact = %q", got)
	}
}
