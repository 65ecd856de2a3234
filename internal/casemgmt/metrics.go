package casemgmt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments case API calls.
type Metrics struct {
	Latency      *prometheus.HistogramVec
	CircuitState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ivory_case_api_duration_seconds",
			Help:    "Case API call latency by operation and outcome",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		CircuitState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ivory_case_api_circuit_open",
			Help: "Case API circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) observe(op, outcome string, seconds float64) {
	if m != nil {
		m.Latency.WithLabelValues(op, outcome).Observe(seconds)
	}
}

func (m *Metrics) circuit(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitState.Set(1)
	} else {
		m.CircuitState.Set(0)
	}
}
