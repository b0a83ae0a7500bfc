package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Build outcomes recorded by Metrics.
const (
	BuildCreated = "created"
	BuildCached  = "cached"
	BuildFailed  = "failed"
)

// Metrics holds the Prometheus collectors for the storage layer.
// A nil *Metrics records nothing.
type Metrics struct {
	builds     *prometheus.CounterVec
	creates    prometheus.Counter
	operations *prometheus.CounterVec
}

// NewMetrics registers the storage collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "file_storage",
			Name:      "client_builds_total",
			Help:      "Client build requests by outcome (created, cached, failed).",
		}, []string{"result"}),
		creates: f.NewCounter(prometheus.CounterOpts{
			Namespace: "file_storage",
			Name:      "bucket_creates_total",
			Help:      "Buckets created because the probe reported them missing.",
		}),
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "file_storage",
			Name:      "operations_total",
			Help:      "Client operations by name and result status.",
		}, []string{"operation", "status"}),
	}
}

func (m *Metrics) observeBuild(result string) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result).Inc()
}

func (m *Metrics) observeBucketCreate() {
	if m == nil {
		return
	}
	m.creates.Inc()
}

func (m *Metrics) observeOperation(op string, status Status) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, status.String()).Inc()
}
