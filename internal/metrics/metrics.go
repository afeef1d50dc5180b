package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prestaboost"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeRetry   = "retry"
	OutcomeDead    = "dead_letter"
)

// Metrics holds the pipeline's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	collectionRuns     *prometheus.CounterVec
	collectionDuration *prometheus.HistogramVec
	collectedRecords   *prometheus.CounterVec
	queueMessages      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		collectionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_runs_total",
			Help:      "Collection runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
		collectionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_duration_seconds",
			Help:      "Wall time of collection runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"kind"}),
		collectedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collected_records_total",
			Help:      "Rows written by collection runs.",
		}, []string{"kind"}),
		queueMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Dispatch queue messages handled by type and outcome.",
		}, []string{"type", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.collectionRuns, m.collectionDuration, m.collectedRecords, m.queueMessages)
	}
	return m
}

func (m *Metrics) ObserveCollection(kind string, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	m.collectionRuns.WithLabelValues(kind, outcome).Inc()
	m.collectionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) AddRecords(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.collectedRecords.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveMessage(messageType, outcome string) {
	if m == nil {
		return
	}
	m.queueMessages.WithLabelValues(messageType, outcome).Inc()
}
