// Package router wires the HTTP routes and middleware chains: a public
// surface for readers and form submissions, and an admin surface gated
// on the token role.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"intercept/internal/handlers"
	"intercept/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *handlers.Auth
	Blogs      *handlers.Content
	Podcasts   *handlers.Content
	Comments   *handlers.Comments
	Newsletter *handlers.Newsletter
	Reports    *handlers.Reports
	Resources  *handlers.Resources
	Users      *handlers.Users
	Activities *handlers.Activities
	Health     *handlers.Health
}

// New builds the chi router. uploadDir is served read-only under
// /uploads/.
func New(verifier middleware.Verifier, h Handlers, uploadDir string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Authenticate(verifier))

	// Public form submissions share one rate limit bucket per client IP.
	formLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Get("/health", h.Health.Check)

	r.Route("/api", func(r chi.Router) {
		// Auth
		r.Group(func(r chi.Router) {
			r.Use(formLimiter.Middleware)
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
		})

		// Content, readable by anyone. The handlers narrow what
		// non-admins see.
		for path, c := range map[string]*handlers.Content{
			"/blogs":    h.Blogs,
			"/podcasts": h.Podcasts,
		} {
			c := c
			r.Route(path, func(r chi.Router) {
				r.Get("/", c.List)
				r.Get("/{id}", c.Get)
				r.Get("/{id}/comments", h.Comments.List)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Post("/{id}/comments", h.Comments.Create)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", c.Create)
					r.Put("/{id}", c.Update)
					r.Delete("/{id}", c.Delete)
					r.Delete("/{id}/comments/{commentID}", h.Comments.Delete)
				})
			})
		}

		// Newsletter
		r.Group(func(r chi.Router) {
			r.Use(formLimiter.Middleware)
			r.Post("/newsletter/subscribe", h.Newsletter.Subscribe)
			r.Post("/newsletter/unsubscribe", h.Newsletter.Unsubscribe)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/newsletter", h.Newsletter.List)
			r.Get("/newsletter/stats", h.Newsletter.Stats)
			r.Delete("/newsletter/{id}", h.Newsletter.Delete)
		})

		// Reports
		r.Group(func(r chi.Router) {
			r.Use(formLimiter.Middleware)
			r.Post("/reports", h.Reports.Create)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/reports", h.Reports.List)
			r.Patch("/reports/{id}/status", h.Reports.UpdateStatus)
		})

		// Resources
		r.Get("/resources", h.Resources.List)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/resources", h.Resources.Create)
			r.Delete("/resources/{id}", h.Resources.Delete)
		})

		// User management and the activity feed
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.List)
				r.Post("/", h.Users.Create)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.Delete("/{id}", h.Users.Delete)
			})
			r.Get("/activities", h.Activities.List)
		})
	})

	// Stored media, served as static files.
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})

	return r
}
