package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/codenestai/client/internal/models"
)

// emptyBody is sent by POST endpoints that take no input.
var emptyBody = struct{}{}

// EnrollmentsService covers the authenticated user's enrollments.
type EnrollmentsService struct {
	client *Client
}

// List returns every enrollment of the authenticated user.
func (s *EnrollmentsService) List(ctx context.Context) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := s.client.do(ctx, http.MethodGet, "/enrollments", nil, true, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// Enroll enrolls the authenticated user in a course. paymentIntentID is sent only when set.
func (s *EnrollmentsService) Enroll(ctx context.Context, courseID, paymentIntentID string) (*models.Enrollment, error) {
	q := url.Values{}
	if paymentIntentID != "" {
		q.Set("paymentIntentId", paymentIntentID)
	}

	var enrollment models.Enrollment
	path := withQuery("/enrollments/"+segment(courseID), q)
	if err := s.client.do(ctx, http.MethodPost, path, emptyBody, true, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Status reports whether the authenticated user is enrolled in a course.
func (s *EnrollmentsService) Status(ctx context.Context, courseID string) (*models.EnrollmentStatus, error) {
	var status models.EnrollmentStatus
	if err := s.client.do(ctx, http.MethodGet, "/enrollments/"+segment(courseID)+"/status", nil, true, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Progress returns lesson completion for an enrollment.
func (s *EnrollmentsService) Progress(ctx context.Context, enrollmentID string) (*models.Progress, error) {
	var progress models.Progress
	if err := s.client.do(ctx, http.MethodGet, "/enrollments/"+segment(enrollmentID)+"/progress", nil, true, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// MarkComplete records a lesson as completed. Any response body is discarded.
func (s *EnrollmentsService) MarkComplete(ctx context.Context, enrollmentID, lessonID string) error {
	path := "/enrollments/" + segment(enrollmentID) + "/lessons/" + segment(lessonID) + "/complete"
	return s.client.do(ctx, http.MethodPost, path, emptyBody, true, nil)
}

// Cancel cancels an enrollment.
func (s *EnrollmentsService) Cancel(ctx context.Context, enrollmentID string) error {
	return s.client.do(ctx, http.MethodDelete, "/enrollments/"+segment(enrollmentID), nil, true, nil)
}
