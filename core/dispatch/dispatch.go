// Package dispatch delivers committed writes to downstream consumers at least
// once.
//
// A store hands every [Dispatchable] it commits to a [Dispatcher]. The
// [Controller] records it in a [Tracker], delivers it to a [Consumer] and
// redelivers it until the consumer, or the controller on its behalf,
// confirms it through [Control.ConfirmDispatched].
//
//	ctrl, err := dispatch.NewController(dispatch.Options[string, string]{
//	    Consumer: projection,
//	    Tracker:  dispatch.NewKVTracker[string, string](kvStore, dispatch.KVTrackerOptions{}),
//	})
//	store := store.NewInMemoryStateStore(store.Options[string, string]{
//	    Dispatchers: []dispatch.Dispatcher[string, string]{ctrl},
//	})
package dispatch

import (
	"context"
	"errors"
)

var ErrDispatchFailure = errors.New("dispatch failed")

type (
	// Dispatcher receives dispatchables from a store right after commit.
	// An error is reported by the store but never fails the write.
	Dispatcher[RS, E any] interface {
		Dispatch(ctx context.Context, d Dispatchable[RS, E]) error
	}

	// Control stops redelivery of a dispatchable. Confirming an unknown or
	// already confirmed id is not an error.
	Control interface {
		ConfirmDispatched(ctx context.Context, id string, interest ConfirmDispatchedResultInterest)
	}

	// Consumer is the downstream receiver. Returning an error keeps the
	// dispatchable pending.
	Consumer[RS, E any] interface {
		Consume(ctx context.Context, d Dispatchable[RS, E], control Control) error
	}

	ConfirmDispatchedResultInterest interface {
		ConfirmDispatchedResultedIn(err error, id string)
	}
)

type ConsumerFunc[RS, E any] func(ctx context.Context, d Dispatchable[RS, E], control Control) error

func (f ConsumerFunc[RS, E]) Consume(ctx context.Context, d Dispatchable[RS, E], control Control) error {
	return f(ctx, d, control)
}

type DispatcherFunc[RS, E any] func(ctx context.Context, d Dispatchable[RS, E]) error

func (f DispatcherFunc[RS, E]) Dispatch(ctx context.Context, d Dispatchable[RS, E]) error {
	return f(ctx, d)
}

type ConfirmDispatchedFunc func(err error, id string)

func (f ConfirmDispatchedFunc) ConfirmDispatchedResultedIn(err error, id string) { f(err, id) }
