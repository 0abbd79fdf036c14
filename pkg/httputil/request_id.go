package httputil

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

type requestIDKey struct{}

// MiddlewareRequestID берёт X-Request-ID от фронта или nginx, иначе выдаёт uuid.
// Чужой id попадает в логи как есть, поэтому пропускаем только печатный ASCII без пробелов.
func MiddlewareRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), reqID)))
	})
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
