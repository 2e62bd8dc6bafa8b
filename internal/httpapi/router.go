// Package httpapi wires the orchestrator onto an HTTP surface, chi
// router and all, the way the teacher gateway's router package builds
// its middleware chain and mounts routes under /v1.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/recomlite/recomlite-server/internal/config"
	recomlitemw "github.com/recomlite/recomlite-server/internal/middleware"
	"github.com/recomlite/recomlite-server/internal/orchestrator"
)

// NewRouter returns a chi.Router with the full middleware chain and
// every recomlite route mounted.
func NewRouter(cfg *config.Config, logger zerolog.Logger, orch *orchestrator.Orchestrator, apiKeys map[string]bool) http.Handler {
	r := chi.NewRouter()

	r.Use(recomlitemw.CORS)
	r.Use(recomlitemw.SecurityHeaders)
	r.Use(recomlitemw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(maxBodySize(cfg.MaxBodyBytes))

	r.Get("/healthz", healthHandler("ok"))
	r.Get("/ready", healthHandler("ready"))
	r.Handle("/metrics", promhttp.Handler())

	h := NewHandler(logger, orch)
	rateLimiter := recomlitemw.NewRateLimiter(logger, cfg.RateLimitEnabled, cfg.RateLimitRPM)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(recomlitemw.APIKeyAuth(cfg.APIKeyHeader, apiKeys))
		v1.Use(rateLimiter.Handler)

		v1.Post("/interactions", h.RecordInteraction)
		v1.Get("/users/{token}/recommendations", h.GetRecommendations)
	})

	return r
}

func healthHandler(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"` + status + `","service":"recomlite"}`))
	}
}

func maxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && r.ContentLength > maxBytes {
				http.Error(w, `{"error":"request_too_large"}`, http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", recomlitemw.RequestIDFromContext(r.Context())).
				Int("status", wrapped.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
