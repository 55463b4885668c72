package mockapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codenestai/client/internal/logging"
	"github.com/codenestai/client/internal/models"
)

// EnrollmentHandler serves enrollment and progress endpoints.
type EnrollmentHandler struct {
	Store *Store
}

// List handles GET /api/enrollments.
func (h EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	respondJSON(r.Context(), w, http.StatusOK, h.Store.Enrollments(user.ID))
}

// Enroll handles POST /api/enrollments/{id}, where id is a course id.
func (h EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := currentUser(ctx)

	if intent := r.URL.Query().Get("paymentIntentId"); intent != "" {
		logging.FromContext(ctx).Info("enrollment payment attached", "paymentIntentId", intent)
	}

	enrollment, err := h.Store.Enroll(user.ID, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Course not found")
	case errors.Is(err, ErrConflict):
		respondError(ctx, w, http.StatusConflict, "Already enrolled in this course")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondJSON(ctx, w, http.StatusCreated, enrollment)
	}
}

// Status handles GET /api/enrollments/{id}/status, where id is a course id.
func (h EnrollmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	enrolled, err := h.Store.IsEnrolled(currentUser(ctx).ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Course not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, models.EnrollmentStatus{Enrolled: enrolled})
}

// Progress handles GET /api/enrollments/{id}/progress.
func (h EnrollmentHandler) Progress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	progress, err := h.Store.Progress(currentUser(ctx).ID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Enrollment not found")
		return
	}
	respondJSON(ctx, w, http.StatusOK, progress)
}

// Complete handles POST /api/enrollments/{id}/lessons/{lessonId}/complete.
func (h EnrollmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, enrollmentID := currentUser(ctx).ID, chi.URLParam(r, "id")
	if _, err := h.Store.Progress(userID, enrollmentID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Enrollment not found")
		return
	}
	progress, err := h.Store.CompleteLesson(userID, enrollmentID, chi.URLParam(r, "lessonId"))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Lesson not found in this course")
		return
	}
	respondJSON(ctx, w, http.StatusOK, progress)
}

// Cancel handles DELETE /api/enrollments/{id}.
func (h EnrollmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.Store.CancelEnrollment(currentUser(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		respondError(ctx, w, http.StatusBadRequest, "Enrollment not found")
	case errors.Is(err, ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "Not authorised")
	case err != nil:
		respondError(ctx, w, http.StatusInternalServerError, "Internal server error")
	default:
		respondStatus(ctx, w, http.StatusNoContent)
	}
}
