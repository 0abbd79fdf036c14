package http

import (
	"net/http"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/transport/ws"
	"github.com/cwrk-planet/messenger/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

// GET /chats: личные чаты, группы и каналы одним списком.
func (h *Handler) ChatList(w http.ResponseWriter, r *http.Request) {
	list, err := h.chats.ChatList(r.Context(), actor(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// GET /chats/{username}/history
func (h *Handler) DirectHistory(w http.ResponseWriter, r *http.Request) {
	me, peer := actor(r), usernameParam(r)
	if err := domain.ValidateUsername(peer); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if peer == me.Username {
		writeError(r.Context(), w, domain.ErrSelfAction)
		return
	}
	h.history(w, r, domain.DirectRoom(me.Username, peer))
}

// GET /groups/{name}/history
func (h *Handler) GroupHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, domain.GroupRoom(chi.URLParam(r, "name")))
}

// GET /channels/{name}/history
func (h *Handler) ChannelHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, domain.ChannelRoom(chi.URLParam(r, "name")))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, room domain.Room) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	hist, err := h.chats.History(r.Context(), actor(r), room, page)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, hist)
}

// GET /groups/{name}/pinned
func (h *Handler) Pinned(w http.ResponseWriter, r *http.Request) {
	m, err := h.chats.Pinned(r.Context(), actor(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, m)
}

// DELETE /chats/{id}: собеседник получает chat_deleted, если онлайн.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	me := actor(r)
	peer, err := h.chats.DeleteChat(r.Context(), me, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.notify.NotifyUser(peer, ws.Message{Type: ws.TypeChatDeleted, Payload: ws.WithPayload{With: me.Username}})
	httputil.NoContent(w)
}

// DELETE /groups/{name}
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if _, err := h.chats.DeleteGroup(r.Context(), actor(r), chi.URLParam(r, "name")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// GET /rooms/{room}/search?q=
func (h *Handler) SearchRoom(w http.ResponseWriter, r *http.Request) {
	room, err := domain.ParseRoom(chi.URLParam(r, "room"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	list, err := h.chats.Search(r.Context(), actor(r), room, r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}
