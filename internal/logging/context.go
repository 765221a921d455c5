package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type ctxKey int

const (
	graphIDKey ctxKey = iota
	requestIDKey
	toolKey
)

// WithGraphID returns a context with the graph ID set.
func WithGraphID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, graphIDKey, id)
}

// WithRequestID returns a context with the request ID set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithTool returns a context with the tool or command name set.
func WithTool(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolKey, name)
}

// GraphID extracts the graph ID from the context, or "" if absent.
func GraphID(ctx context.Context) string {
	v, _ := ctx.Value(graphIDKey).(string)
	return v
}

// RequestID extracts the request ID from the context, or "" if absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// Tool extracts the tool name from the context, or "" if absent.
func Tool(ctx context.Context) string {
	v, _ := ctx.Value(toolKey).(string)
	return v
}

// WithIDs sets all three correlation values on the context at once.
func WithIDs(ctx context.Context, graphID, requestID, tool string) context.Context {
	ctx = WithGraphID(ctx, graphID)
	ctx = WithRequestID(ctx, requestID)
	ctx = WithTool(ctx, tool)
	return ctx
}

// LogWith returns a logger enriched with correlation values from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range correlationAttrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v := GraphID(ctx); v != "" {
		attrs = append(attrs, slog.String("graph_id", v))
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String("request_id", v))
	}
	if v := Tool(ctx); v != "" {
		attrs = append(attrs, slog.String("tool", v))
	}
	return attrs
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation values from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel maps a config string to a level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a text logger on w wrapped in a CorrelationHandler.
func New(w io.Writer, level string) *slog.Logger {
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(NewCorrelationHandler(inner))
}
