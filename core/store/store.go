// Package store defines the write/read protocol of journals, state stores and
// object stores, and provides their in-memory reference implementations.
//
// All operations are asynchronous: a call enqueues the request on the
// store's serialized worker and returns; the outcome is delivered once to the
// given interest, possibly on another goroutine. Await a result with
// [actor.Completes]:
//
//	c := actor.NewCompletes[store.WriteResult]()
//	s.Write(ctx, "p-1", person, store.NoVersion, store.WriteResultFunc(c.Complete),
//	    store.WithSources(PersonCreated{ID: "p-1"}),
//	    store.WithMetadata(symbio.MetadataWithOperation("create")),
//	)
//	res, err := c.Await(ctx)
//
// Writes use optimistic concurrency. Pass [NoVersion] when creating an
// identity and the last observed version afterwards; a mismatch yields
// [ErrConcurrencyConflict] and changes nothing.
//
// Every successful write is handed to the configured dispatchers as
// one [dispatch.Dispatchable]. Dispatch problems never fail a write.
package store

import (
	"context"

	"github.com/codewandler/symbio-go/core/symbio"
)

// StateObject is a domain object with its own persistence identity.
type StateObject interface {
	PersistenceID() string
}

// StateStore keeps the latest state per identity. RS is the raw state
// representation and E the entry payload.
type StateStore[RS, E any] interface {
	Read(ctx context.Context, id string, interest ReadResultInterest, opts ...Option)
	Write(ctx context.Context, id string, state any, expectedVersion int, interest WriteResultInterest, opts ...Option)
	EntryReader(ctx context.Context, name string) (EntryReader[E], error)
}

// ObjectStore is a state store keyed by the object's own identity that also
// answers queries.
type ObjectStore[RS, E any] interface {
	Persist(ctx context.Context, obj StateObject, expectedVersion int, interest WriteResultInterest, opts ...Option)
	QueryObject(ctx context.Context, q QueryExpression, interest QueryResultInterest, opts ...Option)
	QueryAll(ctx context.Context, q QueryExpression, interest QueryResultInterest, opts ...Option)
	EntryReader(ctx context.Context, name string) (EntryReader[E], error)
}

// Journal appends sources to named streams.
type Journal[RS, E any] interface {
	// Append writes source as version streamVersion of the stream. The
	// first source of a stream has version 1.
	Append(ctx context.Context, streamName string, streamVersion int, source any, interest AppendResultInterest, opts ...Option)
	// AppendAll writes sources as versions fromStreamVersion onward.
	AppendAll(ctx context.Context, streamName string, fromStreamVersion int, sources []any, interest AppendResultInterest, opts ...Option)
	StreamReader(ctx context.Context, name string) (StreamReader[RS, E], error)
	EntryReader(ctx context.Context, name string) (EntryReader[E], error)
}

// EntryReader is a named cursor over the store's append-only entry log.
// Readers never modify entries and return them in append order.
type EntryReader[E any] interface {
	Name() string
	// ReadNext returns the entry at the current position and advances, or
	// [ErrEndOfEntries].
	ReadNext(ctx context.Context) (symbio.Entry[E], error)
	// ReadNextN returns up to max entries and advances past them. The slice
	// is empty at the end of the log.
	ReadNextN(ctx context.Context, max int) ([]symbio.Entry[E], error)
	// ReadAt returns the entry at the zero based index without moving.
	ReadAt(ctx context.Context, index int) (symbio.Entry[E], error)
	// Seek positions the reader so that the next read returns the entry with
	// the given id.
	Seek(ctx context.Context, id string) error
	Rewind()
	// Position is the index of the next entry to read.
	Position() int
	Size(ctx context.Context) (int, error)
}

// Stream is the state of one journal stream: the latest snapshot, if any, and
// the entries appended after it.
type Stream[RS, E any] struct {
	StreamName    string
	StreamVersion int
	Snapshot      *symbio.State[RS]
	Entries       []symbio.Entry[E]
}

func (s Stream[RS, E]) HasSnapshot() bool { return s.Snapshot != nil }

type StreamReader[RS, E any] interface {
	Name() string
	// StreamFor returns the stream, or an empty stream with version 0 when
	// nothing was appended to it.
	StreamFor(ctx context.Context, streamName string) (Stream[RS, E], error)
}
