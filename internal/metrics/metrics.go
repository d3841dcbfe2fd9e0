// Package metrics provides Prometheus collectors for the HTTP API.
//
// Usage:
//
//	metrics.ObserveRequest("GET", "/api/recipe/recipes", 200, 12*time.Millisecond)
//	metrics.RecordTokenIssued(true)
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// TokensIssuedTotal counts token requests by outcome.
	TokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_tokens_issued_total",
			Help: "Total number of token requests",
		},
		[]string{"outcome"}, // "issued", "rejected"
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// RecipeImagesTotal counts accepted image uploads by decoded format.
	RecipeImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_recipe_images_total",
			Help: "Total number of recipe images stored",
		},
		[]string{"format"},
	)
)

// ObserveRequest records one handled request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordTokenIssued records the outcome of a token request.
func RecordTokenIssued(ok bool) {
	outcome := "rejected"
	if ok {
		outcome = "issued"
	}
	TokensIssuedTotal.WithLabelValues(outcome).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// RecordRecipeImage records a stored recipe image.
func RecordRecipeImage(format string) {
	RecipeImagesTotal.WithLabelValues(format).Inc()
}
