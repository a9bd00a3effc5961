package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesOpened       prometheus.Counter
	StepsAdvanced     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	ConflictRetries   prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CasesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pacsfr_cases_opened_total",
			Help: "Total number of cases opened by staff",
		}),
		StepsAdvanced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pacsfr_case_steps_advanced_total",
			Help: "Total number of procedure steps advanced",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pacsfr_case_status_transitions_total",
			Help: "Total number of case status transitions by target status",
		}, []string{"to_status"}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pacsfr_case_conflict_retries_total",
			Help: "Total number of optimistic concurrency retries performed",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pacsfr_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) IncrementCasesOpened()     { m.CasesOpened.Inc() }
func (m *Metrics) IncrementStepsAdvanced()   { m.StepsAdvanced.Inc() }
func (m *Metrics) IncrementConflictRetries() { m.ConflictRetries.Inc() }

func (m *Metrics) IncrementStatusTransition(toStatus string) {
	m.StatusTransitions.WithLabelValues(toStatus).Inc()
}
