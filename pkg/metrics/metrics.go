// Package metrics exposes validation counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeAccepted is the kind label recorded for a valid workflow.
const OutcomeAccepted = "none"

// Recorder holds the validation collectors. A nil *Recorder records nothing.
type Recorder struct {
	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wflguard_validations_total",
				Help: "Validated workflows by stage reached and violation kind",
			},
			[]string{"stage", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wflguard_validation_duration_seconds",
				Help:    "Time spent validating one candidate",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
	}
}

// Observe records one verdict. An empty kind means the workflow was accepted.
func (r *Recorder) Observe(stage, kind string, elapsed time.Duration) {
	if r == nil {
		return
	}

	outcome := "rejected"

	if kind == "" {
		kind = OutcomeAccepted
		outcome = "accepted"
	}

	r.validations.WithLabelValues(stage, kind).Inc()
	r.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
