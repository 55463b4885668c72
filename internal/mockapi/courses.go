package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CourseHandler serves the course catalogue.
type CourseHandler struct {
	Store *Store
}

// List handles GET /api/courses.
func (h CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses := h.Store.Courses(r.URL.Query().Get("level"))
	respondJSON(r.Context(), w, http.StatusOK, paginate(courses, parsePage(r, defaultPageSize)))
}

// Get handles GET /api/courses/{ref}, where ref is a slug.
func (h CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.Store.CourseByRef(chi.URLParam(r, "ref"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, course)
}

// Lessons handles GET /api/courses/{ref}/lessons, where ref is a course id.
func (h CourseHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.Store.Lessons(chi.URLParam(r, "ref"))
	if err != nil {
		respondStatus(r.Context(), w, http.StatusNotFound)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, lessons)
}

// Mine handles GET /api/courses/my for instructors and admins.
func (h CourseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	respondJSON(r.Context(), w, http.StatusOK, h.Store.InstructorCourses(user.ID))
}
