package httpmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (domain.UserSummary, error) {
	if token != "good" {
		return domain.UserSummary{}, domain.ErrInvalidToken
	}
	return domain.UserSummary{ID: 7, Username: "alice"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	var got domain.UserSummary
	h := AuthMiddleware(stubAuth{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFromCtx(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
	if got.Username != "alice" {
		t.Fatalf("user in ctx = %+v", got)
	}
}

func TestIPLimiter(t *testing.T) {
	l := &ipLimiter{rps: 1, burst: 2, visitors: map[string]*visitor{}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if !l.allow("1.1.1.1", now) || !l.allow("1.1.1.1", now) {
		t.Fatalf("burst must pass")
	}
	if l.allow("1.1.1.1", now) {
		t.Fatalf("third request in the same instant must be limited")
	}
	if !l.allow("2.2.2.2", now) {
		t.Fatalf("other ip has its own bucket")
	}
	if !l.allow("1.1.1.1", now.Add(time.Second)) {
		t.Fatalf("token must refill after a second")
	}

	l.allow("3.3.3.3", now.Add(10*time.Minute))
	if _, ok := l.visitors["2.2.2.2"]; ok {
		t.Fatalf("idle visitor must be swept")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	calls := 0
	h := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 5; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if calls != 5 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestL_FallsBackToGlobal(t *testing.T) {
	if L(context.Background()) == nil {
		t.Fatalf("nil logger")
	}
	var inner context.Context
	h := WithRequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { inner = r.Context() }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if L(inner) == L(context.Background()) {
		t.Fatalf("request logger not stored")
	}
}
