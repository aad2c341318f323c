package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	taskDuration *prometheus.HistogramVec
	panicTotal   *prometheus.CounterVec
	mailboxDepth *prometheus.GaugeVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "actor_task_duration_seconds",
			Help:      "Actor task run time in seconds",
			Buckets:   defaultBuckets,
		}, []string{"actor"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_panics_total",
			Help:      "Total number of recovered task panics",
		}, []string{"actor"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actor_mailbox_depth",
			Help:      "Current mailbox queue depth",
		}, []string{"actor"}),
	}

	reg.MustRegister(m.taskDuration, m.panicTotal, m.mailboxDepth)
	return m
}

func (m *actorMetrics) TaskDuration(name string) metrics.Timer {
	return newTimer(m.taskDuration.WithLabelValues(name))
}

func (m *actorMetrics) TaskPanic(name string) {
	m.panicTotal.WithLabelValues(name).Inc()
}

func (m *actorMetrics) MailboxDepth(name string, depth int) {
	m.mailboxDepth.WithLabelValues(name).Set(float64(depth))
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
