package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/htl-registration/appointment-intake/internal/metrics"
)

type RouterDeps struct {
	Handler *RegistrationHandler
	// Limiter guards registration submissions; nil disables rate limiting.
	Limiter RateLimiter
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("handler.NewRouter: nil handler")
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(CORS)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/configuration", d.Handler.GetConfiguration)
	r.Get("/appointments", d.Handler.GetOffer)
	r.Get("/statistics", d.Handler.GetStatistics)

	r.Route("/registrations", func(r chi.Router) {
		r.With(rateLimit(d.Limiter)).Post("/", d.Handler.Register)
		r.Get("/{id}", d.Handler.GetRegistration)
	})

	return r
}

func rateLimit(l RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimit(l)
}
