// Package metrics holds the Prometheus collectors of the rewards service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TaskTransitions counts state machine calls by transition and outcome
	TaskTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_transitions_total",
			Help: "Task state machine transitions",
		},
		[]string{"transition", "result"}, // transition: start, claim, open; result: ok, rejected, error
	)

	// PointsCredited sums wallet credits by source
	PointsCredited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_points_credited_total",
			Help: "Points credited to wallets",
		},
		[]string{"source"}, // claim, open
	)

	// Signups counts created users
	Signups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_signups_total",
			Help: "Users created through /authenticate",
		},
		[]string{"referred"}, // true, false
	)

	// ReferralCodeAttempts records how many reservations a successful allocation took
	ReferralCodeAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "referral_code_attempts",
			Help:    "Reservation attempts per allocated referral code",
			Buckets: []float64{1, 2, 3, 5, 8, 16, 32},
		},
	)

	// ReferralCodeCollisions counts reservations lost to an existing code
	ReferralCodeCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_code_collisions_total",
			Help: "Referral code reservations that hit an existing code",
		},
	)

	// HTTPRequests counts handled requests
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration observes request latency
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		TaskTransitions,
		PointsCredited,
		Signups,
		ReferralCodeAttempts,
		ReferralCodeCollisions,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
