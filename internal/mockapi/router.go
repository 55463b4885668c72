// Package mockapi is an in-memory implementation of the CodeNest platform API used for
// local runs and end-to-end tests of the client.
package mockapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codenestai/client/internal/middleware"
	"github.com/codenestai/client/internal/models"
)

// DefaultAllowedOrigins are the Expo development origins.
var DefaultAllowedOrigins = []string{"http://localhost:8081", "http://localhost:19006", "http://127.0.0.1:19006"}

// Dependencies aggregates collaborators required by the router.
type Dependencies struct {
	Store          *Store
	Sessions       SessionManager
	Google         GoogleVerifier
	LoginLimiter   middleware.RateLimiter
	HashCost       int
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	AllowedOrigins []string
}

// NewRouter wires every platform endpoint under /api, plus /healthz. /metrics is served when
// a Registry is supplied.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}

	authn := requireUser(deps.Sessions, deps.Store)
	authH := AuthHandler{
		Store:    deps.Store,
		Sessions: deps.Sessions,
		Verifier: deps.Google,
		Limiter:  deps.LoginLimiter,
		HashCost: deps.HashCost,
	}
	users := UserHandler{Store: deps.Store}
	courses := CourseHandler{Store: deps.Store}
	enrollments := EnrollmentHandler{Store: deps.Store}
	community := CommunityHandler{Store: deps.Store}
	forum := ForumHandler{Store: deps.Store}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	if deps.Registry != nil {
		r.Use(newServerMetrics(deps.Registry).instrument)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", HealthHandler{}.Handle)
	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/google", authH.Google)
			r.Post("/refresh", authH.Refresh)
			r.With(authn).Get("/me", authH.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(authn).Get("/me", users.Me)
			r.With(authn).Put("/me", users.Update)
			r.Get("/{id}", users.Get)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courses.List)
			r.With(authn, requireRole(models.RoleInstructor, models.RoleAdmin)).Get("/my", courses.Mine)
			r.Get("/{ref}", courses.Get)
			r.Get("/{ref}/lessons", courses.Lessons)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", enrollments.List)
			r.Post("/{id}", enrollments.Enroll)
			r.Delete("/{id}", enrollments.Cancel)
			r.Get("/{id}/status", enrollments.Status)
			r.Get("/{id}/progress", enrollments.Progress)
			r.Post("/{id}/lessons/{lessonId}/complete", enrollments.Complete)
		})

		r.Route("/community", func(r chi.Router) {
			r.Get("/posts", community.List)
			r.Get("/posts/{id}", community.Get)
			r.Post("/posts/{id}/like", community.Like)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/posts", community.Create)
				r.Put("/posts/{id}", community.Update)
				r.Delete("/posts/{id}", community.Delete)
				r.Post("/posts/{id}/comments", community.Comment)
				r.Delete("/comments/{id}", community.DeleteComment)
			})
		})

		r.Route("/forum", func(r chi.Router) {
			r.Get("/categories", forum.Categories)
			r.Get("/categories/{slug}/threads", forum.Threads)
			r.Get("/threads/{id}", forum.Thread)
			r.Get("/threads/{id}/replies", forum.Replies)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/categories/{slug}/threads", forum.CreateThread)
				r.Delete("/threads/{id}", forum.DeleteThread)
				r.Post("/threads/{id}/replies", forum.Reply)
				r.Post("/replies/{id}/accept", forum.Accept)
				r.Delete("/replies/{id}", forum.DeleteReply)
				r.With(requireRole(models.RoleAdmin)).Post("/threads/{id}/lock", forum.Lock)
				r.With(requireRole(models.RoleAdmin)).Post("/threads/{id}/pin", forum.Pin)
			})
		})
	})

	return r
}
