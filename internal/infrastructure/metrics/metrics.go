package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine counters exposed on /metrics.
var (
	AssignmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritual_assignments_created_total",
		Help: "Number of daily assignments created.",
	})

	RerollsUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritual_rerolls_used_total",
		Help: "Number of daily rerolls spent.",
	})

	CompletionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ritual_completions_recorded_total",
		Help: "Number of activity completions recorded, by reward qualification.",
	}, []string{"qualified"})

	LapsedStreaksReset = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ritual_lapsed_streaks_reset_total",
		Help: "Number of stored streak counters zeroed by the lapse auditor.",
	})
)
