package http

import (
	"net/http"

	"github.com/cwrk-planet/messenger/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

func channelName(r *http.Request) string { return chi.URLParam(r, "name") }

// POST /channels
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var in ChannelRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	ch, err := h.channels.Create(r.Context(), actor(r), in.Name, in.Description)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.Created(w, ch)
}

// GET /channels/{name}
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	view, err := h.channels.Get(r.Context(), actor(r), channelName(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, view)
}

// DELETE /channels/{name}
func (h *Handler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	if _, err := h.channels.Delete(r.Context(), actor(r), channelName(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// GET /channels/{name}/members
func (h *Handler) ChannelMembers(w http.ResponseWriter, r *http.Request) {
	list, err := h.channels.Members(r.Context(), actor(r), channelName(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// PUT /channels/{name}/members/{username}/role
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var in RoleRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := h.channels.SetRole(r.Context(), actor(r), channelName(r), usernameParam(r), in.Role); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// DELETE /channels/{name}/members/{username}
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.RemoveMember(r.Context(), actor(r), channelName(r), usernameParam(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// POST /channels/{name}/leave
func (h *Handler) LeaveChannel(w http.ResponseWriter, r *http.Request) {
	if err := h.channels.Leave(r.Context(), actor(r), channelName(r)); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// GET /channels/{name}/invites
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	list, err := h.channels.ListInvites(r.Context(), actor(r), channelName(r))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// POST /channels/{name}/invites
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var in InviteRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	inv, err := h.channels.CreateInvite(r.Context(), actor(r), channelName(r), in.toParams())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.Created(w, inv)
}

// DELETE /channels/{name}/invites/{id}
func (h *Handler) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := h.channels.DeleteInvite(r.Context(), actor(r), channelName(r), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// POST /invites/{code}/redeem
func (h *Handler) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	ch, err := h.channels.Redeem(r.Context(), actor(r), chi.URLParam(r, "code"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, ch)
}
