package dispatch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// RecordingConsumer records every dispatchable it receives. It serves as a
// [Consumer] behind a [Controller] and, through Dispatch, as a bare
// [Dispatcher] for store tests.
type RecordingConsumer[RS, E any] struct {
	mu         sync.Mutex
	received   []Dispatchable[RS, E]
	confirm    bool
	failUntil  int
	deliveries int
	changed    chan struct{}
}

// NewRecordingConsumer returns a consumer that confirms each delivery when
// confirm is set.
func NewRecordingConsumer[RS, E any](confirm bool) *RecordingConsumer[RS, E] {
	return &RecordingConsumer[RS, E]{confirm: confirm, changed: make(chan struct{})}
}

// FailFirst makes the first n deliveries fail.
func (r *RecordingConsumer[RS, E]) FailFirst(n int) *RecordingConsumer[RS, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUntil = n
	return r
}

func (r *RecordingConsumer[RS, E]) Consume(ctx context.Context, d Dispatchable[RS, E], control Control) error {
	r.mu.Lock()
	r.deliveries++
	if r.deliveries <= r.failUntil {
		r.notifyLocked()
		r.mu.Unlock()
		return errRecordingFailure
	}
	r.received = append(r.received, d)
	r.notifyLocked()
	r.mu.Unlock()

	if r.confirm && control != nil {
		control.ConfirmDispatched(ctx, d.ID, nil)
	}
	return nil
}

// Dispatch records d directly.
func (r *RecordingConsumer[RS, E]) Dispatch(ctx context.Context, d Dispatchable[RS, E]) error {
	return r.Consume(ctx, d, nil)
}

// Dispatched returns a copy of the dispatchables received so far.
func (r *RecordingConsumer[RS, E]) Dispatched() []Dispatchable[RS, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.received)
}

func (r *RecordingConsumer[RS, E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

// Deliveries counts attempts, failed ones included.
func (r *RecordingConsumer[RS, E]) Deliveries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deliveries
}

// WaitFor blocks until n dispatchables were received or timeout elapses.
func (r *RecordingConsumer[RS, E]) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		r.mu.Lock()
		if len(r.received) >= n {
			r.mu.Unlock()
			return true
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return false
		}
	}
}

func (r *RecordingConsumer[RS, E]) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

var errRecordingFailure = errors.New("recording consumer: planned failure")

var (
	_ Consumer[string, string]   = (*RecordingConsumer[string, string])(nil)
	_ Dispatcher[string, string] = (*RecordingConsumer[string, string])(nil)
)
