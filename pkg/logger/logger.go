// Package logger builds the storefront's JSON slog loggers and carries the
// per-request identifiers that every log line of a request should repeat.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	idsKey ctxKey = iota
	loggerKey
)

// New creates a JSON logger for the named service writing to stdout.
func New(service, level string) *slog.Logger {
	return NewWithWriter(service, level, os.Stdout)
}

// NewWithWriter creates a JSON logger writing to w. Debug level also records
// the source position.
func NewWithWriter(service, level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(h).With(slog.String("service", service))
}

// ParseLevel maps LOG_LEVEL onto a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// requestIDs are the identifiers attached to a request's log lines.
type requestIDs struct {
	correlation string
	session     string
	user        string
}

func idsFrom(ctx context.Context) requestIDs {
	ids, _ := ctx.Value(idsKey).(requestIDs)
	return ids
}

func withIDs(ctx context.Context, set func(*requestIDs)) context.Context {
	ids := idsFrom(ctx)
	set(&ids)
	return context.WithValue(ctx, idsKey, ids)
}

// WithCorrelationID records the request correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.correlation = id })
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).correlation
}

// WithSessionID records the storefront session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.session = id })
}

// SessionIDFromContext returns the storefront session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).session
}

// WithUserID records the logged-in user.
func WithUserID(ctx context.Context, id string) context.Context {
	return withIDs(ctx, func(ids *requestIDs) { ids.user = id })
}

// UserIDFromContext returns the logged-in user, or "".
func UserIDFromContext(ctx context.Context) string {
	return idsFrom(ctx).user
}

// Attrs returns the identifiers ctx carries as log attributes, including
// the active trace and span.
func Attrs(ctx context.Context) []any {
	ids := idsFrom(ctx)
	var attrs []any
	for _, kv := range [...][2]string{
		{"correlation_id", ids.correlation},
		{"session_id", ids.session},
		{"user_id", ids.user},
	} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

// ForRequest returns l with the identifiers of ctx attached.
func ForRequest(ctx context.Context, l *slog.Logger) *slog.Logger {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		return l.With(attrs...)
	}
	return l
}

// NewContext stores l in ctx.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored by NewContext, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
