package actor

import "github.com/codewandler/symbio-go/core/metrics"

// ActorMetrics defines the metrics recorded by an [Actor].
// All methods are thread-safe.
type ActorMetrics interface {
	TaskDuration(actor string) metrics.Timer
	TaskPanic(actor string)
	MailboxDepth(actor string, depth int)
}

type nopActorMetrics struct{}

func (nopActorMetrics) TaskDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) TaskPanic(string)                  {}
func (nopActorMetrics) MailboxDepth(string, int)          {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
