package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quizbot/internal/handlers"
	"quizbot/internal/middleware"
)

func New(
	healthHandler *handlers.HealthHandler,
	statsHandler *handlers.StatsHandler,
	limiter *middleware.RateLimiter,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)

	r.NotFound(handlers.NotFound)

	// Health check
	r.Get("/healthz", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// ──── Session Stats ────
		r.Get("/stats", statsHandler.Stats)
	})

	return r
}
