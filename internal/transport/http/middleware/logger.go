package httpmw

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/messenger/pkg/httputil"
	"github.com/cwrk-planet/messenger/pkg/logger"
)

const loggerKey ctxKey = "logger"

// WithRequestLogger кладёт *slog.Logger с req_id/path/method (и trace id, если есть) в контекст.
func WithRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, _ := httputil.FromContext(r.Context())
		l := logger.FromCtx(r.Context()).With(
			slog.String("req_id", reqID),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
		)
		ctx := context.WithValue(r.Context(), loggerKey, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// L извлекает логгер из контекста, а если его нет: возвращает глобальный
func L(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return logger.L()
}
