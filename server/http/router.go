package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"merchant-recon/internal/config"
	"merchant-recon/internal/geocode"
	"merchant-recon/internal/middleware"
	recHnd "merchant-recon/internal/reconcile/handler"
	"merchant-recon/server/http/handlers"
)

// NewRouter wires the API. locator is the shared reverse-geocode provider and
// is optional; without it requests asking for reverse geocoding are rejected.
func NewRouter(cfg config.Config, locator geocode.Locator, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.Server.MaxUploadMB) << 20))

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/reconcile", recHnd.Reconcile(cfg, locator, logger))

	return r
}
