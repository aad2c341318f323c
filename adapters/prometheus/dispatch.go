package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/metrics"
)

// dispatchMetrics implements dispatch.DispatchMetrics using Prometheus.
type dispatchMetrics struct {
	dispatched       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	deliveryFailed   *prometheus.CounterVec
	redelivered      *prometheus.CounterVec
	confirmed        *prometheus.CounterVec
	pending          *prometheus.GaugeVec
}

// NewDispatchMetrics creates a new Prometheus implementation of
// DispatchMetrics.
func NewDispatchMetrics(reg prometheus.Registerer) dispatch.DispatchMetrics {
	m := &dispatchMetrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_dispatched_total",
			Help:      "Total number of dispatchables accepted",
		}, []string{"dispatcher"}),

		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_delivery_duration_seconds",
			Help:      "Consumer delivery latency in seconds",
			Buckets:   defaultBuckets,
		}, []string{"dispatcher"}),

		deliveryFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_delivery_failures_total",
			Help:      "Total number of failed deliveries",
		}, []string{"dispatcher"}),

		redelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_redelivered_total",
			Help:      "Total number of redelivery attempts",
		}, []string{"dispatcher"}),

		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_confirmed_total",
			Help:      "Total number of confirmed dispatchables",
		}, []string{"dispatcher"}),

		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_pending",
			Help:      "Current number of unconfirmed dispatchables",
		}, []string{"dispatcher"}),
	}

	reg.MustRegister(
		m.dispatched,
		m.deliveryDuration,
		m.deliveryFailed,
		m.redelivered,
		m.confirmed,
		m.pending,
	)
	return m
}

func (m *dispatchMetrics) Dispatched(name string) {
	m.dispatched.WithLabelValues(name).Inc()
}

func (m *dispatchMetrics) DeliveryDuration(name string) metrics.Timer {
	return newTimer(m.deliveryDuration.WithLabelValues(name))
}

func (m *dispatchMetrics) DeliveryFailed(name string) {
	m.deliveryFailed.WithLabelValues(name).Inc()
}

func (m *dispatchMetrics) Redelivered(name string) {
	m.redelivered.WithLabelValues(name).Inc()
}

func (m *dispatchMetrics) Confirmed(name string) {
	m.confirmed.WithLabelValues(name).Inc()
}

func (m *dispatchMetrics) Pending(name string, n int) {
	m.pending.WithLabelValues(name).Set(float64(n))
}

var _ dispatch.DispatchMetrics = (*dispatchMetrics)(nil)
