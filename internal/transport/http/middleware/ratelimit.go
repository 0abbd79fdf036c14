package httpmw

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/messenger/pkg/httputil"

	"golang.org/x/time/rate"
)

// RateLimit: token bucket на IP клиента. rps <= 0 выключает лимит.
func RateLimit(rps int, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = rps * 2
	}
	l := &ipLimiter{rps: rate.Limit(rps), burst: burst, visitors: make(map[string]*visitor)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				httputil.Error(r.Context(), w, http.StatusTooManyRequests, "rate limit exceeded", map[string]any{"code": "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// старых посетителей чистим не чаще раза в visitorTTL
	if now.Sub(l.lastSweep) > visitorTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RealIP от chi уже переписал RemoteAddr; порт отрезаем.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
