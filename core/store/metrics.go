package store

import "github.com/codewandler/symbio-go/core/metrics"

// StoreMetrics defines the metrics recorded by the stores. The store
// argument is the store's name.
type StoreMetrics interface {
	WriteDuration(store string) metrics.Timer
	ReadDuration(store string) metrics.Timer
	QueryDuration(store, query string) metrics.Timer
	EntriesAppended(store string, n int)
	ConcurrencyConflict(store string)
	StorageFailure(store string)
	DispatchFailure(store string)
}

type nopStoreMetrics struct{}

func (nopStoreMetrics) WriteDuration(string) metrics.Timer         { return metrics.NopTimer() }
func (nopStoreMetrics) ReadDuration(string) metrics.Timer          { return metrics.NopTimer() }
func (nopStoreMetrics) QueryDuration(string, string) metrics.Timer { return metrics.NopTimer() }
func (nopStoreMetrics) EntriesAppended(string, int)                {}
func (nopStoreMetrics) ConcurrencyConflict(string)                 {}
func (nopStoreMetrics) StorageFailure(string)                      {}
func (nopStoreMetrics) DispatchFailure(string)                     {}

// NopStoreMetrics returns a no-op StoreMetrics implementation.
func NopStoreMetrics() StoreMetrics { return nopStoreMetrics{} }
