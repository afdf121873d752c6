package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle events counted by market_transactions_total.
const (
	eventRequested = "requested"
	eventExchanged = "contact_exchanged"
	eventCompleted = "completed"
	eventCancelled = "cancelled"
)

var (
	transactionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_transactions_total",
			Help: "Transaction lifecycle events by kind.",
		},
		[]string{"event"},
	)
	creditAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_credit_adjustments_total",
			Help: "Credit score adjustments applied at completion, by role and direction.",
		},
		[]string{"role", "direction"},
	)
	reviewScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "market_review_score",
			Help:    "Distribution of review scores.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

func init() {
	prometheus.MustRegister(transactionEvents, creditAdjustments, reviewScores)
}

func observeCreditDelta(role string, delta int) {
	dir := "none"
	switch {
	case delta > 0:
		dir = "up"
	case delta < 0:
		dir = "down"
	}
	creditAdjustments.WithLabelValues(role, dir).Inc()
}
