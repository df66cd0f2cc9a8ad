// Package api serves similar-review queries over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"reviewrec/internal/domain"
	"reviewrec/internal/metrics"
	"reviewrec/internal/service"
)

// Recommender is the query side of service.Recommender.
type Recommender interface {
	Similar(ctx context.Context, q service.Query) ([]domain.Result, error)
	Suggest(id string, n int) []string
	Size() int
}

// Config tunes the router middleware.
type Config struct {
	// RateLimit is the number of requests per RateWindow and client IP; 0 disables it.
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

// Handler holds the HTTP handlers.
type Handler struct {
	rec    Recommender
	logger zerolog.Logger
}

// NewRouter builds the chi router with /similar, /healthz and /metrics.
func NewRouter(rec Recommender, cfg Config, logger zerolog.Logger) http.Handler {
	h := &Handler{rec: rec, logger: logger.With().Str("component", "api").Logger()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			window := cfg.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.RateLimit, window))
		}
		r.Get("/similar", h.Similar)
	})
	return r
}

// instrument counts requests per route and status.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(status))
		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
