package actor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestActor(t *testing.T) *Actor {
	a := New(Options{
		Name:        "test",
		Context:     t.Context(),
		ControlSize: 10_000,
		MailboxSize: 10_000,
	})
	t.Cleanup(a.Stop)
	return a
}

func TestActor_call(t *testing.T) {
	a := newTestActor(t)

	res, err := Call(t.Context(), a, func(ctx context.Context) (string, error) {
		return "Hello", nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", res)

	_, err = Call(t.Context(), a, func(ctx context.Context) (string, error) {
		return "", errors.New("uups")
	})
	require.ErrorContains(t, err, "uups")
}

func TestActor_sequential(t *testing.T) {
	a := newTestActor(t)

	var (
		counter int
		order   []int
	)
	for i := range 100 {
		require.NoError(t, a.Send(t.Context(), func(context.Context) {
			counter++
			order = append(order, i)
		}))
	}

	n, err := Call(t.Context(), a, func(context.Context) (int, error) { return counter, nil })
	require.NoError(t, err)
	require.Equal(t, 100, n)
	for i, v := range order {
		require.Equal(t, i, v)
	}
}

func TestActor_panicContained(t *testing.T) {
	var panics atomic.Int32
	a := New(Options{
		Context: t.Context(),
		OnPanic: func(any, []byte) { panics.Add(1) },
	})
	defer a.Stop()

	_, err := Call(t.Context(), a, func(context.Context) (int, error) { panic("boom") })
	require.ErrorIs(t, err, ErrPanicked)

	v, err := Call(t.Context(), a, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, int32(1), panics.Load())
}

func TestActor_stepMode(t *testing.T) {
	a := newTestActor(t)
	require.NoError(t, a.EnableStepMode())

	var ran atomic.Int32
	for range 3 {
		require.NoError(t, a.Send(t.Context(), func(context.Context) { ran.Add(1) }))
	}

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(0), ran.Load())

	require.NoError(t, a.Step())
	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, a.Resume())
	require.Eventually(t, func() bool { return ran.Load() == 3 }, time.Second, time.Millisecond)
}

func TestActor_stop(t *testing.T) {
	a := New(Options{Context: t.Context()})
	a.Stop()
	a.Stop()

	select {
	case <-a.Done():
	default:
		t.Fatal("done not closed")
	}

	require.ErrorIs(t, a.Send(t.Context(), func(context.Context) {}), ErrStopped)
	require.False(t, a.TrySend(func(context.Context) {}))
	require.ErrorIs(t, a.Pause(), ErrStopped)

	_, err := Call(t.Context(), a, func(context.Context) (int, error) { return 1, nil })
	require.ErrorIs(t, err, ErrStopped)
}

func TestCompletes(t *testing.T) {
	c := NewCompletes[int]()
	go c.Complete(7)
	v, err := c.Await(t.Context())
	require.NoError(t, err)
	require.Equal(t, 7, v)

	c.Fail(errors.New("late"))
	v, err = c.Await(t.Context())
	require.NoError(t, err, "first result wins")
	require.Equal(t, 7, v)

	pending := NewCompletes[int]()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err = pending.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
