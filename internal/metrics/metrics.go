// Package metrics holds the Prometheus instruments for booking, registration,
// cancellation, and audit activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsBooked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_booked_total",
			Help: "Tickets successfully booked, by ticket type",
		},
		[]string{"ticket_type"},
	)

	BookingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rejections_total",
			Help: "Booking attempts refused, by reason",
		},
		[]string{"reason"}, // not_found, full, duplicate, validation, error
	)

	RegistrationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_transitions_total",
			Help: "Ticket status transitions made by organizers",
		},
		[]string{"from", "to"},
	)

	EventsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_cancelled_total",
			Help: "Events cancelled",
		},
	)

	TicketsRefunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_refunded_total",
			Help: "Tickets refunded by event cancellations",
		},
	)

	AuditWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Activity records that could not be written",
		},
		[]string{"activity_type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordHTTPRequest observes one served request. route is the chi route pattern.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
