// Package metrics registers the Prometheus collectors for bookings and pricing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes used as label values.
const (
	OutcomeCommitted    = "committed"
	OutcomeInvalid      = "invalid_input"
	OutcomeNotFound     = "not_found"
	OutcomeInsufficient = "insufficient_inventory"
	OutcomeAborted      = "aborted"
	OutcomePersistence  = "persistence_failure"
)

var (
	bookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_attempts_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_duration_seconds",
			Help:    "End-to-end duration of booking transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	lockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_lock_wait_seconds",
			Help:    "Time spent waiting for an event row lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	priceQuotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_quotes_total",
			Help: "Advisory price quotes by source",
		},
		[]string{"source"},
	)

	notifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_failures_total",
			Help: "Post-commit notification failures by sink",
		},
		[]string{"sink"},
	)
)

// TrackBooking records the outcome and duration of one booking attempt.
func TrackBooking(outcome string, d time.Duration) {
	bookingAttempts.WithLabelValues(outcome).Inc()
	bookingDuration.Observe(d.Seconds())
}

// TrackLockWait records how long a booking waited for its row lock.
func TrackLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

// TrackQuote counts a price quote served from the cache or the engine.
func TrackQuote(source string) {
	priceQuotes.WithLabelValues(source).Inc()
}

// TrackNotifyFailure counts a swallowed post-commit notification error.
func TrackNotifyFailure(sink string) {
	notifyFailures.WithLabelValues(sink).Inc()
}
