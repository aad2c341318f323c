package dispatch

import (
	"slices"
	"time"

	"github.com/codewandler/symbio-go/core/symbio"
)

// Dispatchable is the unit of delivery produced by exactly one committed
// write: the persisted state snapshot, if any, and the entries of that write
// in append order.
//
// Consumers may see the same dispatchable more than once and must treat
// delivery as idempotent, keyed by ID.
type Dispatchable[RS, E any] struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	State     *symbio.State[RS] `json:"state,omitempty"`
	Entries   []symbio.Entry[E] `json:"entries,omitempty"`
	// Stream names the journal stream the entries were appended to.
	Stream string `json:"stream,omitempty"`
}

// NewDispatchable copies state and entries so that later changes by the
// caller cannot leak into a dispatchable under delivery.
func NewDispatchable[RS, E any](id string, createdAt time.Time, state *symbio.State[RS], entries []symbio.Entry[E]) Dispatchable[RS, E] {
	d := Dispatchable[RS, E]{
		ID:        id,
		CreatedAt: createdAt,
		Entries:   slices.Clone(entries),
	}
	if state != nil {
		s := *state
		d.State = &s
	}
	return d
}

func (d Dispatchable[RS, E]) HasState() bool   { return d.State != nil }
func (d Dispatchable[RS, E]) HasEntries() bool { return len(d.Entries) > 0 }

// Key is the ordering key for delivery: the journal stream, else the state
// id, else the dispatchable id.
func (d Dispatchable[RS, E]) Key() string {
	switch {
	case d.Stream != "":
		return d.Stream
	case d.State != nil && d.State.ID != "":
		return d.State.ID
	}
	return d.ID
}
