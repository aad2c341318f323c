package actor

import (
	"context"
	"errors"
	"sync"
)

var ErrPanicked = errors.New("actor task panicked")

// Completes is a one-shot result slot. The first Complete or Fail wins; later
// calls are ignored.
type Completes[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func NewCompletes[T any]() *Completes[T] {
	return &Completes[T]{done: make(chan struct{})}
}

func (c *Completes[T]) Complete(v T) {
	c.once.Do(func() {
		c.value = v
		close(c.done)
	})
}

func (c *Completes[T]) Fail(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed once a result is available.
func (c *Completes[T]) Done() <-chan struct{} { return c.done }

// Await blocks until a result is available or ctx is done.
func (c *Completes[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
