package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/pkg/httputil"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserSummary, error)
}

// AuthMiddleware требует Authorization: Bearer <jwt> и кладёт пользователя в контекст.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || len(header) <= 7 {
				httputil.Error(r.Context(), w, http.StatusUnauthorized, "missing bearer token", map[string]any{"code": "unauthorized"})
				return
			}

			user, err := auth.Authenticate(r.Context(), strings.TrimSpace(header[7:]))
			if err != nil {
				status, code := http.StatusUnauthorized, "unauthorized"
				if domain.Code(err) == "internal" {
					status, code = http.StatusInternalServerError, "internal"
				}
				httputil.Error(r.Context(), w, status, "invalid token", map[string]any{"code": code})
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUser(ctx context.Context, u domain.UserSummary) context.Context {
	return context.WithValue(ctx, ctxKeyUser, u)
}

func UserFromCtx(ctx context.Context) (domain.UserSummary, bool) {
	u, ok := ctx.Value(ctxKeyUser).(domain.UserSummary)
	return u, ok
}
