package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/messenger/internal/domain"
	httpmw "github.com/cwrk-planet/messenger/internal/transport/http/middleware"
	"github.com/cwrk-planet/messenger/pkg/httputil"
)

// ToHTTP: статус по корню таксономии доменных ошибок.
func ToHTTP(err error) int {
	switch domain.Code(err) {
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "forbidden":
		return http.StatusForbidden
	case "invalid_input":
		return http.StatusBadRequest
	case "expired", "exhausted":
		return http.StatusGone
	case "unauthorized":
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := ToHTTP(err)
	code := domain.Code(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		httpmw.L(ctx).Error("request failed", slog.Any("err", err))
		msg = "internal error"
	}
	httputil.Error(ctx, w, status, msg, map[string]any{"code": code})
}
