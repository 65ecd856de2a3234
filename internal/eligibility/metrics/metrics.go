package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts eligibility outcomes.
type Metrics struct {
	Verdicts       *prometheus.CounterVec
	Classification *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_eligibility_verdicts_total",
			Help: "Eligibility answers by question and verdict kind",
		}, []string{"question", "verdict"}),
		Classification: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_eligibility_classifications_total",
			Help: "Items classified into an exemption category",
		}, []string{"item_type"}),
	}
}

// ObserveVerdict records one answered eligibility question.
func (m *Metrics) ObserveVerdict(question, verdict, itemType string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(question, verdict).Inc()
	if itemType != "" {
		m.Classification.WithLabelValues(itemType).Inc()
	}
}
