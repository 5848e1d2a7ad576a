package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_reservations_total",
		Help: "Purchase intents handled by the route service, by outcome",
	}, []string{"result"})

	SeatsReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transit_seat_releases_total",
		Help: "Reservations whose seats were given back",
	})

	SeatsReleaseClampedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transit_seat_release_clamped_total",
		Help: "Seat releases hitting a trip that was already at capacity",
	})

	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_purchases_total",
		Help: "Purchases by final status",
	}, []string{"status"})

	TicketsCancelledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transit_tickets_cancelled_total",
		Help: "Cancelled tickets by origin",
	}, []string{"origin"})

	CompensationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transit_compensation_failures_total",
		Help: "Tickets the trip cancellation fan-out failed to cancel",
	})
)
