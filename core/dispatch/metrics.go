package dispatch

import "github.com/codewandler/symbio-go/core/metrics"

// DispatchMetrics defines the metrics recorded by a [Controller]. The
// dispatcher argument is the controller's name.
type DispatchMetrics interface {
	Dispatched(dispatcher string)
	DeliveryDuration(dispatcher string) metrics.Timer
	DeliveryFailed(dispatcher string)
	Redelivered(dispatcher string)
	Confirmed(dispatcher string)
	Pending(dispatcher string, n int)
}

type nopDispatchMetrics struct{}

func (nopDispatchMetrics) Dispatched(string)                     {}
func (nopDispatchMetrics) DeliveryDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopDispatchMetrics) DeliveryFailed(string)                 {}
func (nopDispatchMetrics) Redelivered(string)                    {}
func (nopDispatchMetrics) Confirmed(string)                      {}
func (nopDispatchMetrics) Pending(string, int)                   {}

// NopDispatchMetrics returns a no-op DispatchMetrics implementation.
func NopDispatchMetrics() DispatchMetrics { return nopDispatchMetrics{} }
