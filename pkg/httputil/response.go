package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope map[string]any

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

// OK: «успешный» ответ с обёрткой.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, envelope{"data": data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, envelope{"data": data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error: унифицированная ошибка (message + meta). request id, если есть, кладётся в meta.
func Error(ctx context.Context, w http.ResponseWriter, status int, msg string, meta map[string]any) {
	body := envelope{"message": msg}
	if reqID, ok := FromContext(ctx); ok {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["request_id"] = reqID
	}
	if len(meta) > 0 {
		body["meta"] = meta
	}
	JSON(w, status, envelope{"error": body})
}
