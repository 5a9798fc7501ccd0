package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewWithWriter_AddsServiceName(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("storefront", "info", &buf).Info("hello")

	out := decodeLine(t, &buf)
	assert.Equal(t, "storefront", out["service"])
	assert.Equal(t, "hello", out["msg"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("storefront", "warn", &buf).Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestForRequest_AllFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("storefront", "info", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithCorrelationID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithUserID(ctx, "9876543210")

	ForRequest(ctx, l).Info("enriched")

	out := decodeLine(t, &buf)
	assert.Equal(t, "req-1", out["correlation_id"])
	assert.Equal(t, "sess-1", out["session_id"])
	assert.Equal(t, "9876543210", out["user_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestForRequest_Empty(t *testing.T) {
	var buf bytes.Buffer
	ForRequest(context.Background(), NewWithWriter("storefront", "info", &buf)).Info("bare")

	out := decodeLine(t, &buf)
	for _, key := range []string{"correlation_id", "session_id", "user_id", "trace_id", "span_id"} {
		_, ok := out[key]
		assert.False(t, ok, key)
	}
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := Discard()
	assert.Same(t, l, FromContext(NewContext(context.Background(), l)))
}

func TestIDsAreIndependent(t *testing.T) {
	parent := WithCorrelationID(context.Background(), "req-1")
	child := WithSessionID(parent, "sess-1")

	assert.Equal(t, "req-1", CorrelationIDFromContext(child))
	assert.Equal(t, "sess-1", SessionIDFromContext(child))
	assert.Empty(t, SessionIDFromContext(parent), "parent context is not mutated")
	assert.Empty(t, Attrs(context.Background()))
}
