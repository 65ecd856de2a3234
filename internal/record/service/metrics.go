package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts submissions.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	CreateLatency      *prometheus.HistogramVec
	AttachmentFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_record_submissions_total",
			Help: "Record submissions by schema and outcome",
		}, []string{"schema", "outcome"}),
		CreateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ivory_record_create_duration_seconds",
			Help:    "Time to create a case record",
			Buckets: prometheus.DefBuckets,
		}, []string{"schema"}),
		AttachmentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ivory_record_attachment_failures_total",
			Help: "Attachments that could not be linked to a created record",
		}, []string{"schema"}),
	}
}

func (m *Metrics) observeCreate(schema string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := string(StatusSubmitted)
	if err != nil {
		outcome = string(StatusFailed)
	}
	m.Submissions.WithLabelValues(schema, outcome).Inc()
	m.CreateLatency.WithLabelValues(schema).Observe(d.Seconds())
}

func (m *Metrics) attachmentFailed(schema string) {
	if m != nil {
		m.AttachmentFailures.WithLabelValues(schema).Inc()
	}
}
