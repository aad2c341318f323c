package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/symbio-go/core/metrics"
	"github.com/codewandler/symbio-go/core/store"
)

// storeMetrics implements store.StoreMetrics using Prometheus.
type storeMetrics struct {
	writeDuration        *prometheus.HistogramVec
	readDuration         *prometheus.HistogramVec
	queryDuration        *prometheus.HistogramVec
	entriesAppended      *prometheus.CounterVec
	concurrencyConflicts *prometheus.CounterVec
	storageFailures      *prometheus.CounterVec
	dispatchFailures     *prometheus.CounterVec
}

// NewStoreMetrics creates a new Prometheus implementation of StoreMetrics.
func NewStoreMetrics(reg prometheus.Registerer) store.StoreMetrics {
	m := &storeMetrics{
		writeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_write_duration_seconds",
			Help:      "Store write and append latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"store"}),

		readDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_read_duration_seconds",
			Help:      "Store read latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"store"}),

		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Store query latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"store", "query"}),

		entriesAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_entries_appended_total",
			Help:      "Total number of entries appended",
		}, []string{"store"}),

		concurrencyConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_concurrency_conflicts_total",
			Help:      "Total number of rejected writes with a stale version",
		}, []string{"store"}),

		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_storage_failures_total",
			Help:      "Total number of writes aborted by the backend",
		}, []string{"store"}),

		dispatchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_dispatch_failures_total",
			Help:      "Total number of committed writes a dispatcher failed to accept",
		}, []string{"store"}),
	}

	reg.MustRegister(
		m.writeDuration,
		m.readDuration,
		m.queryDuration,
		m.entriesAppended,
		m.concurrencyConflicts,
		m.storageFailures,
		m.dispatchFailures,
	)
	return m
}

func (m *storeMetrics) WriteDuration(s string) metrics.Timer {
	return newTimer(m.writeDuration.WithLabelValues(s))
}

func (m *storeMetrics) ReadDuration(s string) metrics.Timer {
	return newTimer(m.readDuration.WithLabelValues(s))
}

func (m *storeMetrics) QueryDuration(s, query string) metrics.Timer {
	return newTimer(m.queryDuration.WithLabelValues(s, query))
}

func (m *storeMetrics) EntriesAppended(s string, n int) {
	m.entriesAppended.WithLabelValues(s).Add(float64(n))
}

func (m *storeMetrics) ConcurrencyConflict(s string) {
	m.concurrencyConflicts.WithLabelValues(s).Inc()
}

func (m *storeMetrics) StorageFailure(s string) {
	m.storageFailures.WithLabelValues(s).Inc()
}

func (m *storeMetrics) DispatchFailure(s string) {
	m.dispatchFailures.WithLabelValues(s).Inc()
}

var _ store.StoreMetrics = (*storeMetrics)(nil)
