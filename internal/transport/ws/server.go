package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.UserSummary, error)
}

type Options struct {
	PingEvery       time.Duration
	WriteWait       time.Duration
	ReadLimit       int64
	EventsPerSecond float64 // 0: без лимита
	EventBurst      int
	AllowedOrigins  []string // пусто: любой Origin
}

func (o Options) withDefaults() Options {
	if o.PingEvery <= 0 {
		o.PingEvery = 15 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.EventBurst <= 0 {
		o.EventBurst = 1
	}
	return o
}

type Server struct {
	upgrader websocket.Upgrader
	disp     *Dispatcher
	auth     Authenticator
	opts     Options
}

func NewServer(disp *Dispatcher, auth Authenticator, opts Options) *Server {
	opts = opts.withDefaults()
	return &Server{
		disp: disp,
		auth: auth,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// WS endpoint: GET /ws?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	accessToken := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	user, err := s.auth.Authenticate(r.Context(), accessToken)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		slog.Warn("ws upgrade failed", slog.String("user", user.Username), slog.Any("err", err))
		return
	}

	c := newWsConn(conn, user, s.opts.WriteWait)
	s.disp.Connect(c)
	slog.Debug("ws connected", slog.String("user", user.Username), slog.String("conn", c.id))

	ctx := context.WithoutCancel(r.Context())
	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c)

	s.disp.Disconnect(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", slog.String("user", user.Username), slog.Any("err", err))
	}
	slog.Debug("ws disconnected", slog.String("user", user.Username), slog.String("conn", c.id))
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	var limiter *rate.Limiter
	if s.opts.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.EventsPerSecond), s.opts.EventBurst)
	}

	c.conn.SetReadLimit(s.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", slog.String("user", c.user.Username), slog.Any("err", err))
			}
			return
		}
		if limiter != nil && !limiter.Allow() {
			_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Code: "rate_limited", Message: "too many events"}})
			continue
		}
		s.disp.Handle(ctx, c, data)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.opts.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- conn ---

type wsConn struct {
	id        string
	conn      *websocket.Conn
	user      domain.UserSummary
	writeWait time.Duration
	sendMu    chan struct{}
	closed    chan struct{}
}

func newWsConn(c *websocket.Conn, user domain.UserSummary, writeWait time.Duration) *wsConn {
	return &wsConn{
		id:        uuid.NewString(),
		conn:      c,
		user:      user,
		writeWait: writeWait,
		sendMu:    make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()

	select {
	case <-c.closed:
		return websocket.ErrCloseSent
	default:
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()

	select {
	case <-c.closed:
		return nil
	default:
		close(c.closed)
	}
	return c.conn.Close()
}

func (c *wsConn) ID() string               { return c.id }
func (c *wsConn) User() domain.UserSummary { return c.user }
