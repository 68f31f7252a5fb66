// Package server assembles the catalog HTTP surface.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"moviecatalog/internal/catalog"
	"moviecatalog/internal/metrics"
	"moviecatalog/internal/util"
)

type Config struct {
	ServiceName string
	Service     catalog.Service
	// WriteLimiter throttles POST/PUT/DELETE. Nil disables it.
	WriteLimiter *rate.Limiter
	// Metrics is optional; when set, requests are recorded and /metrics is served.
	Metrics *metrics.Metrics
}

// NewRouter returns the root handler: middleware, health, metrics and /movies.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(util.WithRequestID)
	r.Use(func(next http.Handler) http.Handler { return util.WithRequestLog(cfg.ServiceName, next) })
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	handler := catalog.NewHandler(cfg.Service, cfg.WriteLimiter)
	r.Mount("/movies", handler.Routes())
	return r
}
