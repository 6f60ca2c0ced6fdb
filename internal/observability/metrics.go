package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palco_booking_transitions_total",
		Help: "Booking status transitions by target status.",
	}, []string{"to"})

	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "palco_booking_transition_conflicts_total",
		Help: "Guarded status updates rejected because the row changed concurrently.",
	})

	CheckInScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "palco_checkin_confidence_score",
		Help:    "Confidence score distribution for arrival claims.",
		Buckets: []float64{0, 10, 25, 50, 70, 85, 95, 100},
	})

	ManualStarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "palco_manual_starts_total",
		Help: "Bookings moved to EM_ANDAMENTO by requester confirmation without GPS evidence.",
	})

	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palco_moderation_actions_total",
		Help: "Enforcement actions applied by the contact filter.",
	}, []string{"action"})

	AdvanceReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "palco_advance_releases_total",
		Help: "Advance payments released at approved check-in.",
	})

	ReconcilerSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palco_reconciler_sweeps_total",
		Help: "Reconciler sweep executions by sweep name and result.",
	}, []string{"sweep", "result"})

	ReconcilerResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "palco_reconciler_resolved_total",
		Help: "Rows settled by reconciler sweeps.",
	}, []string{"sweep"})

	OutboxBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "palco_outbox_backlog",
		Help: "Outbox events waiting for broker delivery.",
	})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "palco_outbox_published_total",
		Help: "Outbox events successfully delivered to the broker.",
	})
)
