package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relationToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stuffbox",
		Name:      "relation_toggles_total",
		Help:      "Like and follow toggles by operation and outcome.",
	}, []string{"op", "outcome"})

	cascadeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stuffbox",
		Name:      "cascade_deletes_total",
		Help:      "Cascade deletes by entity kind and outcome.",
	}, []string{"kind", "outcome"})

	partialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stuffbox",
		Name:      "partial_failures_total",
		Help:      "Multi-document operations that stopped after committing some steps.",
	}, []string{"op", "step"})
)

// outcome classifies an error for metric labels
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isPartial(err):
		return "partial"
	}
	return "error"
}
