package api

import (
	"context"
	"net/http"

	"github.com/codenestai/client/internal/models"
)

// CourseListOptions filters the course catalogue.
type CourseListOptions struct {
	PageOptions
	// Level restricts results to BEGINNER, INTERMEDIATE or ADVANCED when set.
	Level string
}

// CoursesService covers the course catalogue.
type CoursesService struct {
	client *Client
}

// List returns a page of published courses.
func (s *CoursesService) List(ctx context.Context, opts CourseListOptions) (*models.Page[models.Course], error) {
	q := opts.query(defaultSize)
	if opts.Level != "" {
		q.Set("level", opts.Level)
	}

	var page models.Page[models.Course]
	if err := s.client.do(ctx, http.MethodGet, withQuery("/courses", q), nil, false, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns the course identified by slug.
func (s *CoursesService) Get(ctx context.Context, slug string) (*models.Course, error) {
	var course models.Course
	if err := s.client.do(ctx, http.MethodGet, "/courses/"+segment(slug), nil, false, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Lessons returns the lessons of the course with the given id.
func (s *CoursesService) Lessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := s.client.do(ctx, http.MethodGet, "/courses/"+segment(courseID)+"/lessons", nil, false, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// Mine returns the courses taught by the authenticated instructor.
func (s *CoursesService) Mine(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := s.client.do(ctx, http.MethodGet, "/courses/my", nil, true, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
