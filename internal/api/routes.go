package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/forms-api/internal/pkg/httputil"
)

// SetupRoutes configures the router: public form endpoints (rate
// limited when a limiter is supplied) and token-protected admin routes.
func SetupRoutes(h *Handlers, adminToken string, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The form endpoints are called from browsers on marketing pages,
	// so origins stay open; no cookies are involved.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Public form endpoints
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/contact", h.SubmitContact)
			r.Post("/waitlist", h.SubmitWaitlist)
		})

		// Admin endpoints behind the shared token
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdminToken(adminToken))
			r.Get("/contacts", h.ListContacts)
			r.Get("/contacts/{id}", h.GetContact)
			r.Patch("/contacts/{id}/status", h.UpdateContactStatus)
			r.Get("/waitlist", h.ListWaitlist)
			r.Get("/waitlist/{id}", h.GetWaitlistEntry)
			r.Patch("/waitlist/{id}/status", h.UpdateWaitlistStatus)
			r.Post("/export", h.Export)
		})
	})

	return r
}

// requireAdminToken checks the X-Admin-Token header. An empty
// configured token locks the admin routes entirely rather than leaving
// them open.
func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || got == "" ||
				subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httputil.Unauthorized(w, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
