// Package metrics declares the instrumentation primitives used by stores,
// dispatchers and actors. Core packages depend only on these interfaces;
// adapters/prometheus provides the production implementation.
package metrics

// Counter only goes up.
type Counter interface {
	Inc()
	// Add increments by delta, which must be >= 0.
	Add(delta float64)
}

// Gauge reports a value that may go up and down, such as a pending count.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// Timer measures one operation. It starts when created; ObserveDuration
// records the elapsed time:
//
//	defer m.WriteDuration("accounts").ObserveDuration()
type Timer interface {
	ObserveDuration()
}

type nop struct{}

func (nop) Inc()             {}
func (nop) Dec()             {}
func (nop) Add(float64)      {}
func (nop) Set(float64)      {}
func (nop) ObserveDuration() {}

// NopCounter returns a Counter that discards increments.
func NopCounter() Counter { return nop{} }

// NopGauge returns a Gauge that discards updates.
func NopGauge() Gauge { return nop{} }

// NopTimer returns a Timer that records nothing.
func NopTimer() Timer { return nop{} }
