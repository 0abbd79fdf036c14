package http

import (
	"net/http"
	"strings"

	"github.com/cwrk-planet/messenger/pkg/httputil"
)

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in CredentialsRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "username and password are required", map[string]any{"code": "invalid_input"})
		return
	}
	res, err := h.auth.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	httputil.Created(w, authResponse(res))
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in CredentialsRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "username and password are required", map[string]any{"code": "invalid_input"})
		return
	}
	res, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	httputil.OK(w, authResponse(res))
}

// GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), actor(r).ID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, userResponse(u))
}

// PATCH /me/username: в ответе новый токен: старый несёт прежнее имя.
func (h *Handler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var in ChangeUsernameRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	res, err := h.auth.ChangeUsername(r.Context(), actor(r).ID, in.Username)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, authResponse(res))
}

// PATCH /me/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in ChangePasswordRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), actor(r).ID, in.OldPassword, in.NewPassword); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// PATCH /me/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in ProfilePatchRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	u, err := h.social.UpdateProfile(r.Context(), actor(r).ID, in.toDomain())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, userResponse(u))
}
