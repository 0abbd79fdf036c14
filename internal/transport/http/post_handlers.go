package http

import (
	"context"
	"net/http"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/pkg/httputil"
)

func postID(r *http.Request) (domain.PostID, error) {
	id, err := int64Param(r, "id")
	return domain.PostID(id), err
}

// GET /feed?page=&per_page=
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	page, err := pageFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	list, err := h.social.Feed(r.Context(), actor(r), page)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// POST /posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in PostRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	p, err := h.social.CreatePost(r.Context(), actor(r), in.Content, in.ImageURL)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.Created(w, p)
}

// GET /posts/search?q=
func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.social.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// PATCH /posts/{id}
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var in PostPatchRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	p, err := h.social.UpdatePost(r.Context(), actor(r), id, domain.PostPatch{Content: in.Content, ImageURL: in.ImageURL})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, p)
}

// DELETE /posts/{id}
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	h.postAction(w, r, h.social.DeletePost)
}

// POST|DELETE /posts/{id}/like, /repost; DELETE /posts/{id}/reaction
func (h *Handler) Like(w http.ResponseWriter, r *http.Request)     { h.postAction(w, r, h.social.Like) }
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request)   { h.postAction(w, r, h.social.Unlike) }
func (h *Handler) Repost(w http.ResponseWriter, r *http.Request)   { h.postAction(w, r, h.social.Repost) }
func (h *Handler) Unrepost(w http.ResponseWriter, r *http.Request) { h.postAction(w, r, h.social.Unrepost) }
func (h *Handler) Unreact(w http.ResponseWriter, r *http.Request)  { h.postAction(w, r, h.social.Unreact) }

func (h *Handler) postAction(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, domain.UserSummary, domain.PostID) error,
) {
	id, err := postID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := fn(r.Context(), actor(r), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// PUT /posts/{id}/reaction
func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var in ReactionRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if err := h.social.React(r.Context(), actor(r), id, in.Reaction); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.NoContent(w)
}

// GET /posts/{id}/comments
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	list, err := h.social.Comments(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.OK(w, list)
}

// POST /posts/{id}/comments
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	var in CommentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	c, err := h.social.Comment(r.Context(), actor(r), id, in.Content)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	httputil.Created(w, c)
}
