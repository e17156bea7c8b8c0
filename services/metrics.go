package services

import "github.com/prometheus/client_golang/prometheus"

var (
	recalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_recalculations_total",
			Help: "Challenge recalculations by type and result",
		},
		[]string{"type", "result"},
	)
	recalculationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "challenge_recalculation_duration_seconds",
			Help:    "Duration of a single challenge recalculation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
	slotsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_slots_completed_total",
			Help: "Slots flipped to completed (or filled, for day challenges)",
		},
		[]string{"type"},
	)
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Challenges that reached their terminal state",
		},
		[]string{"type"},
	)
	backfillTrophiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_backfill_trophies_total",
			Help: "Qualifying trophies bucketed by calendar backfill",
		},
	)
)

// InitMetrics registers the engine metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(recalculationsTotal)
	prometheus.MustRegister(recalculationDuration)
	prometheus.MustRegister(slotsCompletedTotal)
	prometheus.MustRegister(completionsTotal)
	prometheus.MustRegister(backfillTrophiesTotal)
}
