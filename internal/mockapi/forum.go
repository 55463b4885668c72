package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const defaultReplyPageSize = 50

type threadRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type replyRequest struct {
	Content string `json:"content"`
}

// ForumHandler serves categories, threads and replies.
type ForumHandler struct {
	Store *Store
}

// Categories handles GET /api/forum/categories.
func (h ForumHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Store.Categories())
}

// Threads handles GET /api/forum/categories/{slug}/threads.
func (h ForumHandler) Threads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.Store.Threads(chi.URLParam(r, "slug"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, paginate(threads, parsePage(r, defaultPageSize)))
}

// Thread handles GET /api/forum/threads/{id}. Every read counts as a view.
func (h ForumHandler) Thread(w http.ResponseWriter, r *http.Request) {
	thread, err := h.Store.ViewThread(chi.URLParam(r, "id"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, thread)
}

// CreateThread handles POST /api/forum/categories/{slug}/threads.
func (h ForumHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req threadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(req.Body) == "" {
		fields["body"] = "Body is required"
	}
	if len(fields) > 0 {
		respondValidation(ctx, w, fields)
		return
	}

	thread, err := h.Store.CreateThread(currentUser(ctx), chi.URLParam(r, "slug"), req.Title, req.Body)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Category not found")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, thread)
}

// DeleteThread handles DELETE /api/forum/threads/{id}.
func (h ForumHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.Store.DeleteThread(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Thread not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondStatus(ctx, w, http.StatusNoContent)
	}
}

// Lock handles POST /api/forum/threads/{id}/lock for admins.
func (h ForumHandler) Lock(w http.ResponseWriter, r *http.Request) {
	h.flag(w, r, true, false)
}

// Pin handles POST /api/forum/threads/{id}/pin for admins.
func (h ForumHandler) Pin(w http.ResponseWriter, r *http.Request) {
	h.flag(w, r, false, true)
}

func (h ForumHandler) flag(w http.ResponseWriter, r *http.Request, lock, pin bool) {
	ctx := r.Context()
	if err := h.Store.SetThreadFlags(chi.URLParam(r, "id"), lock, pin); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Thread not found")
		return
	}
	respondStatus(ctx, w, http.StatusOK)
}

// Replies handles GET /api/forum/threads/{id}/replies.
func (h ForumHandler) Replies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.Store.Replies(chi.URLParam(r, "id"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, paginate(replies, parsePage(r, defaultReplyPageSize)))
}

// Reply handles POST /api/forum/threads/{id}/replies.
func (h ForumHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req replyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondValidation(ctx, w, map[string]string{"content": "Content is required"})
		return
	}

	reply, err := h.Store.AddReply(currentUser(ctx), chi.URLParam(r, "id"), req.Content)
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Thread not found")
	case errors.Is(err, ErrLocked):
		respondError(ctx, w, http.StatusConflict, "Thread is locked, no new replies allowed")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondJSON(ctx, w, http.StatusCreated, reply)
	}
}

// Accept handles POST /api/forum/replies/{id}/accept.
func (h ForumHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reply, err := h.Store.AcceptReply(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Reply not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Only the thread author can mark an accepted answer")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondJSON(ctx, w, http.StatusOK, reply)
	}
}

// DeleteReply handles DELETE /api/forum/replies/{id}.
func (h ForumHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.Store.DeleteReply(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Reply not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondStatus(ctx, w, http.StatusNoContent)
	}
}
