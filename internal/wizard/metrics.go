package wizard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a step submission.
const (
	OutcomeAdvanced = "advanced"
	OutcomeInvalid  = "invalid"
	OutcomeExited   = "exited"
	OutcomeError    = "error"
)

// Metrics counts step submissions.
type Metrics struct {
	Submissions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_wizard_submissions_total",
			Help: "Step submissions by step and outcome",
		}, []string{"step", "outcome"}),
	}
}

func (m *Metrics) observe(step StepID, outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(string(step), outcome).Inc()
	}
}
