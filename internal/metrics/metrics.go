package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "reservation_total",
			Help:      "Count of reservation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, bookingCancelled, httpRequests)
	})
}

// Reservation outcomes.
const (
	OutcomeConfirmed    = "confirmed"
	OutcomeConflict     = "conflict"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

func IncReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
