// Package actor provides the mailbox executor that serializes all mutations
// of a store or dispatcher instance.
//
// An [Actor] runs [Task] functions sequentially in its own goroutine:
//
//	a := actor.New(actor.Options{Name: "journal", Context: ctx})
//	defer a.Stop()
//
//	_ = a.Send(ctx, func(ctx context.Context) {
//	    // only this goroutine touches the store's records
//	})
//
// Use [Call] for request-response style access:
//
//	n, err := actor.Call(ctx, a, func(ctx context.Context) (int, error) {
//	    return len(records), nil
//	})
//
// Panics inside a task are contained and reported through [Options.OnPanic];
// the actor keeps running.
//
// # Completion
//
// [Completes] is the one-shot result slot used to turn asynchronous interest
// callbacks into blocking calls:
//
//	c := actor.NewCompletes[store.WriteResult]()
//	s.Write(ctx, id, state, store.NoVersion, store.WriteResultFunc(c.Complete))
//	res, err := c.Await(ctx)
//
// # Lifecycle Control
//
// Actors support pause/resume for debugging and testing:
//
//	a.Pause()          // Stop processing tasks
//	a.EnableStepMode() // Process only on Step
//	a.Step()           // Process exactly one task
//	a.Resume()         // Continue normal processing
//	<-a.Done()         // Wait for actor shutdown
package actor
