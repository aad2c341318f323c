// Package prometheus provides Prometheus implementations of the store,
// dispatcher and actor metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/symbio-go/core/metrics"
)

const namespace = "symbio"

// timer wraps a Prometheus histogram to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5,
}

// AllMetrics holds the Prometheus implementations for every component.
type AllMetrics struct {
	Store    *storeMetrics
	Dispatch *dispatchMetrics
	Actor    *actorMetrics
}

// NewAllMetrics registers the metrics of all components on reg.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Store:    NewStoreMetrics(reg).(*storeMetrics),
		Dispatch: NewDispatchMetrics(reg).(*dispatchMetrics),
		Actor:    NewActorMetrics(reg).(*actorMetrics),
	}
}
