package httputil

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cwrk-planet/messenger/pkg/logger"
)

// MiddlewareLogging логирует метод, путь, статус, размер, длительность и X-Request-ID.
// Тела не пишем: в них пароли и токены.
func MiddlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &logResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		level := slog.LevelInfo
		switch {
		case lrw.status >= 500:
			level = slog.LevelError
		case lrw.status >= 400:
			level = slog.LevelWarn
		}

		reqID, _ := FromContext(r.Context())
		logger.FromCtx(r.Context()).LogAttrs(r.Context(), level, "http request",
			slog.String("req_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", lrw.status),
			slog.Int("bytes", lrw.bytes),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_ip", r.RemoteAddr),
		)
	})
}

type logResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *logResponseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	return n, err
}

// Hijack нужен для апгрейда /ws под этим middleware.
func (w *logResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("httputil: response writer does not support hijacking")
	}
	if w.status == 0 {
		w.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (w *logResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
