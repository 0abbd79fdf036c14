package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/messenger/internal/transport/http/middleware"
	"github.com/cwrk-planet/messenger/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Deps struct {
	Handler *Handler
	Auth    httpmw.Authenticator
	WS      http.HandlerFunc

	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimitRPS   int
}

func NewRouter(d Deps) http.Handler {
	h := d.Handler
	r := chi.NewRouter()

	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httpmw.WithRequestLogger)
	r.Use(httputil.MiddlewareLogging)
	r.Use(httpmw.RateLimit(d.RateLimitRPS, 0))

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{httputil.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.OK(w, map[string]string{"status": "ok"})
	})

	// WS живёт дольше любого request timeout, поэтому вне группы с Timeout
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Group(func(pub chi.Router) {
		pub.Use(middlewareChi.Timeout(timeout))
		pub.Post("/auth/register", h.Register)
		pub.Post("/auth/login", h.Login)
	})

	// Все остальные маршруты требуют Bearer-токен
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(d.Auth))
		pr.Use(middlewareChi.Timeout(timeout))

		pr.Route("/me", func(me chi.Router) {
			me.Get("/", h.Me)
			me.Patch("/username", h.ChangeUsername)
			me.Patch("/password", h.ChangePassword)
			me.Patch("/profile", h.UpdateProfile)
		})

		pr.Route("/users", func(ur chi.Router) {
			ur.Get("/search", h.SearchUsers)
			ur.Get("/online", h.OnlineUsers)
			ur.Route("/{username}", func(u chi.Router) {
				u.Get("/", h.Profile)
				u.Get("/posts", h.UserPosts)
				u.Get("/followers", h.Followers)
				u.Get("/following", h.Following)
				u.Post("/follow", h.Follow)
				u.Delete("/follow", h.Unfollow)
			})
		})

		pr.Get("/feed", h.Feed)

		pr.Route("/posts", func(pt chi.Router) {
			pt.Post("/", h.CreatePost)
			pt.Get("/search", h.SearchPosts)
			pt.Route("/{id}", func(p chi.Router) {
				p.Patch("/", h.UpdatePost)
				p.Delete("/", h.DeletePost)
				p.Post("/like", h.Like)
				p.Delete("/like", h.Unlike)
				p.Get("/comments", h.Comments)
				p.Post("/comments", h.Comment)
				p.Put("/reaction", h.React)
				p.Delete("/reaction", h.Unreact)
				p.Post("/repost", h.Repost)
				p.Delete("/repost", h.Unrepost)
			})
		})

		pr.Route("/chats", func(cr chi.Router) {
			cr.Get("/", h.ChatList)
			cr.Get("/{username}/history", h.DirectHistory)
			cr.Delete("/{id}", h.DeleteChat)
		})

		pr.Route("/groups/{name}", func(g chi.Router) {
			g.Get("/history", h.GroupHistory)
			g.Get("/pinned", h.Pinned)
			g.Delete("/", h.DeleteGroup)
		})

		pr.Route("/channels", func(ch chi.Router) {
			ch.Post("/", h.CreateChannel)
			ch.Route("/{name}", func(c chi.Router) {
				c.Get("/", h.GetChannel)
				c.Delete("/", h.DeleteChannel)
				c.Get("/history", h.ChannelHistory)
				c.Get("/members", h.ChannelMembers)
				c.Put("/members/{username}/role", h.SetRole)
				c.Delete("/members/{username}", h.RemoveMember)
				c.Post("/leave", h.LeaveChannel)
				c.Get("/invites", h.ListInvites)
				c.Post("/invites", h.CreateInvite)
				c.Delete("/invites/{id}", h.DeleteInvite)
			})
		})

		pr.Post("/invites/{code}/redeem", h.RedeemInvite)
		pr.Get("/rooms/{room}/search", h.SearchRoom)
	})

	return r
}
