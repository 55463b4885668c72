package mockapi

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/models"
)

// UserHandler serves profile endpoints.
type UserHandler struct {
	Store *Store
}

// Me handles GET /api/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, currentUser(r.Context()))
}

// Update handles PUT /api/users/me.
func (h UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := validateProfile(req); len(fields) > 0 {
		respondValidation(ctx, w, fields)
		return
	}

	user, err := h.Store.UpdateUser(currentUser(ctx).ID, req)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "User not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

// Get handles GET /api/users/{id}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Store.User(chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		respondStatus(ctx, w, http.StatusNotFound)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

func validateProfile(req models.UpdateProfileRequest) map[string]string {
	fields := map[string]string{}
	if req.FirstName != nil && !between(*req.FirstName, 1, 60) {
		fields["firstName"] = "First name must be 1-60 characters"
	}
	if req.LastName != nil && !between(*req.LastName, 1, 60) {
		fields["lastName"] = "Last name must be 1-60 characters"
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > 500 {
		fields["bio"] = "Bio must be at most 500 characters"
	}
	if req.AvatarURL != nil && utf8.RuneCountInString(*req.AvatarURL) > 1024 {
		fields["avatarUrl"] = "Avatar URL must be at most 1024 characters"
	}
	return fields
}

func between(value string, lo, hi int) bool {
	n := utf8.RuneCountInString(value)
	return n >= lo && n <= hi
}
