package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		activationsTotal,
		reconcilerTicksTotal,
	)
}

var (
	activationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activations_total",
			Help: "Entitlement activations by outcome (activated/boosted/failed).",
		},
		[]string{"outcome"},
	)

	reconcilerTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_ticks_total",
			Help: "Background sweep iterations by worker.",
		},
		[]string{"worker"},
	)
)

func IncActivation(outcome string) {
	activationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncReconcilerTick(worker string) {
	reconcilerTicksTotal.WithLabelValues(norm(worker)).Inc()
}
