package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/finledger/internal/adapter/http/handler"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router. Optional fields may be
// left nil.
type RouterConfig struct {
	EntryHandler  *handler.EntryHandler
	UserHandler   *handler.UserHandler
	HealthHandler *handler.HealthHandler

	Logger                zerolog.Logger
	Metrics               *metrics.Metrics
	MetricsHandler        http.Handler
	RateLimiter           *middleware.RateLimiter
	IdempotencyMiddleware *middleware.IdempotencyMiddleware
	// AuthMiddleware guards the entry and balance routes when set.
	AuthMiddleware func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyMiddleware != nil {
			r.Use(cfg.IdempotencyMiddleware.Wrap)
		}

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Post("/", cfg.UserHandler.Register)
			r.Post("/authenticate", cfg.UserHandler.Authenticate)

			r.Group(func(r chi.Router) {
				if cfg.AuthMiddleware != nil {
					r.Use(cfg.AuthMiddleware)
				}
				r.Get("/{id}", cfg.UserHandler.Get)
				r.Get("/{id}/balance", cfg.UserHandler.Balance)
			})
		})

		// Entries
		r.Route("/entries", func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Put("/{id}", cfg.EntryHandler.Update)
			r.Put("/{id}/status", cfg.EntryHandler.ChangeStatus)
			r.Delete("/{id}", cfg.EntryHandler.Delete)
		})
	})

	return r
}
