package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const attrKey contextKey = "attrs"

// ContextHandler implements [slog.Handler] and folds into each record any
// attributes that were attached to the context with [Ctx]. Request-scoped
// values like the principal id ride along this way.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(handler slog.Handler) ContextHandler {
	return ContextHandler{Handler: handler}
}

// Handle implements [slog.Handler].
func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(attrKey).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

// Ctx returns a context carrying the given attributes, appending to any
// already present.
func Ctx(ctx context.Context, toAppend ...slog.Attr) context.Context {
	attrs, _ := ctx.Value(attrKey).([]slog.Attr)
	attrs = append(attrs[:len(attrs):len(attrs)], toAppend...)
	return context.WithValue(ctx, attrKey, attrs)
}
