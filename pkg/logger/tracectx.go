package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

func AttrsFromCtx(ctx context.Context) []slog.Attr {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}

	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

// FromCtx возвращает глобальный логгер, дополненный trace-атрибутами из ctx.
func FromCtx(ctx context.Context) *slog.Logger {
	l := L()
	attrs := AttrsFromCtx(ctx)
	if len(attrs) == 0 {
		return l
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return l.With(args...)
}
