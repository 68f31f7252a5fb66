// cmd/api/main.go
package main

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"moviecatalog/internal/util"
)

func main() {
	logger := util.InitLogger(getEnv("LOG_LEVEL", "info"))

	catalogServiceURL, err := url.Parse(getEnv("CATALOG_SERVICE_URL", "http://localhost:8081"))
	if err != nil {
		slog.Error("invalid CATALOG_SERVICE_URL", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + getEnv("PORT", "8080"),
		Handler:           newGateway(catalogServiceURL),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("API gateway listening", "addr", srv.Addr, "catalog", catalogServiceURL.String())
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("API gateway stopped", "error", err)
		os.Exit(1)
	}
}

// newGateway forwards /api/v1/catalog/* to the catalog service with the prefix removed.
func newGateway(catalogServiceURL *url.URL) http.Handler {
	catalogProxy := httputil.NewSingleHostReverseProxy(catalogServiceURL)

	r := chi.NewRouter()
	r.Use(util.WithRequestID)
	r.Use(func(next http.Handler) http.Handler { return util.WithRequestLog("api-gateway", next) })
	r.Use(middleware.Recoverer)
	r.Handle("/api/v1/catalog/*", http.StripPrefix("/api/v1/catalog", catalogProxy))
	return r
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
