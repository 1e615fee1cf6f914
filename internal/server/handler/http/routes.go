package http

import (
	"net/http"

	"github.com/atinyakov/habittracker/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth   *AuthHandler
	Habits *HabitHandler
	Tags   *TagHandler
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Server is healthy"})
}

// NewRouter builds the API router.
//
// Routes:
//
//	GET  /health
//	POST /api/auth/register, /api/auth/login
//	/api/users, /api/habits, /api/tags (bearer token required)
func NewRouter(h Handlers, verifier middleware.TokenVerifier, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(verifier, logger))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Auth.ListUsers)
				r.Get("/me", h.Auth.Me)
				r.Put("/me", h.Auth.UpdateMe)
				r.Put("/me/password", h.Auth.ChangePassword)
			})

			r.Route("/habits", func(r chi.Router) {
				r.Get("/", h.Habits.List)
				r.Post("/", h.Habits.Create)
				r.Get("/{id}", h.Habits.Get)
				r.Put("/{id}", h.Habits.Update)
				r.Delete("/{id}", h.Habits.Delete)
				r.Post("/{id}/complete", h.Habits.Complete)
				r.Get("/{id}/entries", h.Habits.Entries)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", h.Tags.List)
				r.Post("/", h.Tags.Create)
				r.Get("/{id}", h.Tags.Get)
				r.Put("/{id}", h.Tags.Update)
				r.Delete("/{id}", h.Tags.Delete)
			})
		})
	})

	return r
}
