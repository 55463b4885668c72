package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/codenestai/client/internal/models"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

type commentRequest struct {
	Content string `json:"content"`
}

var postTypes = map[string]bool{
	models.PostTypeDiscussion: true,
	models.PostTypeQuestion:   true,
	models.PostTypeShowcase:   true,
}

// CommunityHandler serves the community feed.
type CommunityHandler struct {
	Store *Store
}

// List handles GET /api/community/posts.
func (h CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	postType := strings.ToUpper(r.URL.Query().Get("type"))
	if postType != "" && !postTypes[postType] {
		respondError(r.Context(), w, http.StatusBadRequest, "Unknown post type")
		return
	}
	posts := h.Store.Posts(postType)
	respondJSON(r.Context(), w, http.StatusOK, paginate(posts, parsePage(r, defaultPageSize)))
}

// Get handles GET /api/community/posts/{id}.
func (h CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.Store.Post(chi.URLParam(r, "id"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, post)
}

// Create handles POST /api/community/posts.
func (h CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Type = strings.ToUpper(req.Type)
	if req.Type == "" {
		req.Type = models.PostTypeDiscussion
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "Content is required"
	}
	if !postTypes[req.Type] {
		fields["type"] = "Unknown post type"
	}
	if len(fields) > 0 {
		respondValidation(ctx, w, fields)
		return
	}

	post := h.Store.CreatePost(currentUser(ctx), req.Title, req.Content, req.Type)
	respondJSON(ctx, w, http.StatusCreated, post)
}

// Update handles PUT /api/community/posts/{id}.
func (h CommunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Type = strings.ToUpper(req.Type)
	if req.Type != "" && !postTypes[req.Type] {
		respondValidation(ctx, w, map[string]string{"type": "Unknown post type"})
		return
	}

	post, err := h.Store.UpdatePost(currentUser(ctx), chi.URLParam(r, "id"), req.Title, req.Content, req.Type)
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Post not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised to edit this post")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondJSON(ctx, w, http.StatusOK, post)
	}
}

// Like handles POST /api/community/posts/{id}/like.
func (h CommunityHandler) Like(w http.ResponseWriter, r *http.Request) {
	post, err := h.Store.LikePost(chi.URLParam(r, "id"))
	if err != nil {
		respondError(r.Context(), w, http.StatusBadRequest, "Post not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, post)
}

// Delete handles DELETE /api/community/posts/{id}.
func (h CommunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.Store.DeletePost(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Post not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised to delete this post")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondStatus(ctx, w, http.StatusNoContent)
	}
}

// Comment handles POST /api/community/posts/{id}/comments.
func (h CommunityHandler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondValidation(ctx, w, map[string]string{"content": "Content is required"})
		return
	}

	comment, err := h.Store.AddComment(currentUser(ctx), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Post not found")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/community/comments/{id}.
func (h CommunityHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.Store.DeleteComment(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Comment not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondStatus(ctx, w, http.StatusNoContent)
	}
}
