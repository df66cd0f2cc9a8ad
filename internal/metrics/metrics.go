// Package metrics exposes prometheus instrumentation for the recommender.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reviewrec/internal/domain"
)

var (
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewrec_query_duration_seconds",
			Help:    "Duration of similar-review queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	QueryResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewrec_query_results",
			Help:    "Number of results returned per query",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewrec_query_errors_total",
			Help: "Total number of failed queries by kind",
		},
		[]string{"kind"},
	)

	CorpusReviews = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reviewrec_corpus_reviews",
			Help: "Number of indexed reviews per movie",
		},
		[]string{"movie_id"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)
)

// RecordQuery records one query outcome.
func RecordQuery(duration time.Duration, results int, err error) {
	QueryDuration.Observe(duration.Seconds())
	if err != nil {
		QueryErrors.WithLabelValues(ErrorKind(err)).Inc()
		return
	}
	QueryResults.Observe(float64(results))
}

// RecordAPIRequest counts a served request.
func RecordAPIRequest(method, endpoint, statusCode string) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
}

// SetCorpus publishes the per-movie review counts.
func SetCorpus(movies map[string]int) {
	CorpusReviews.Reset()
	for m, n := range movies {
		CorpusReviews.WithLabelValues(m).Set(float64(n))
	}
}

// ErrorKind maps an error to a low-cardinality label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmptyCorpus), errors.Is(err, domain.ErrNotFitted):
		return "corpus"
	default:
		return "internal"
	}
}
