package http

import (
	"net/http"

	"github.com/cwrk-planet/messenger/pkg/httputil"
)

// GET /users/search?q=
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.social.SearchUsers(r.Context(), actor(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// GET /users/online
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"users": h.notify.Online()})
}

// GET /users/{username}
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	view, err := h.social.Profile(r.Context(), actor(r), usernameParam(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, view)
}

// GET /users/{username}/posts
func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	list, err := h.social.UserPosts(r.Context(), usernameParam(r), page)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// GET /users/{username}/followers
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	list, err := h.social.Followers(r.Context(), usernameParam(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// GET /users/{username}/following
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	list, err := h.social.Following(r.Context(), usernameParam(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// POST /users/{username}/follow
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	if err := h.social.Follow(r.Context(), actor(r), usernameParam(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// DELETE /users/{username}/follow
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.social.Unfollow(r.Context(), actor(r), usernameParam(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}
