package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/store"
	"github.com/codewandler/symbio-go/core/store/storetests"
)

func TestEntryReader_IndependentPositions(t *testing.T) {
	j, _ := newJournal(t)
	require.NoError(t, storetests.AppendAll(t, j, "s", 1, []any{src(1), src(2), src(3), src(4)}).Err)

	r1, err := j.EntryReader(t.Context(), "one")
	require.NoError(t, err)
	r2, err := j.EntryReader(t.Context(), "two")
	require.NoError(t, err)

	e, err := r1.ReadNext(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1", e.ID())
	_, err = r1.ReadNext(t.Context())
	require.NoError(t, err)

	e, err = r2.ReadNext(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1", e.ID())

	require.Equal(t, 2, r1.Position())
	require.Equal(t, 1, r2.Position())

	// same name, same cursor
	again, err := j.EntryReader(t.Context(), "one")
	require.NoError(t, err)
	require.Equal(t, 2, again.Position())
	require.Equal(t, "one", again.Name())
}

func TestEntryReader_Navigation(t *testing.T) {
	j, _ := newJournal(t)
	require.NoError(t, storetests.AppendAll(t, j, "s", 1, []any{src(1), src(2), src(3)}).Err)

	r, err := j.EntryReader(t.Context(), "nav")
	require.NoError(t, err)

	size, err := r.Size(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, size)

	batch, err := r.ReadNextN(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	batch, err = r.ReadNextN(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, "3", batch[0].ID())

	batch, err = r.ReadNextN(t.Context(), 5)
	require.NoError(t, err)
	require.Empty(t, batch)

	_, err = r.ReadNext(t.Context())
	require.ErrorIs(t, err, store.ErrEndOfEntries)

	require.NoError(t, r.Seek(t.Context(), "2"))
	e, err := r.ReadNext(t.Context())
	require.NoError(t, err)
	require.Equal(t, "2", e.ID())

	require.ErrorIs(t, r.Seek(t.Context(), "42"), store.ErrNotFound)

	e, err = r.ReadAt(t.Context(), 0)
	require.NoError(t, err)
	require.Equal(t, "1", e.ID())
	require.Equal(t, 2, r.Position())
	_, err = r.ReadAt(t.Context(), 3)
	require.ErrorIs(t, err, store.ErrEndOfEntries)

	r.Rewind()
	require.Zero(t, r.Position())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = r.ReadNext(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_DispatchThroughController(t *testing.T) {
	consumer := dispatch.NewRecordingConsumer[string, string](true)
	ctrl, err := dispatch.NewController(dispatch.Options[string, string]{
		Consumer:      consumer,
		CheckInterval: -1,
		Context:       t.Context(),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Stop)

	s := store.NewInMemoryStateStore(store.Options[string, string]{
		StateAdapters: storetests.StateAdapters(),
		EntryAdapters: storetests.EntryAdapters(),
		Dispatchers:   []dispatch.Dispatcher[string, string]{ctrl},
		Context:       t.Context(),
	})
	t.Cleanup(s.Stop)

	p := storetests.Person{ID: "p-1", Name: "Tom Jones", Age: 85}
	require.NoError(t, storetests.Write(t, s, p.ID, p, store.NoVersion, store.WithSources(src(1))).Err)
	p.Age = 86
	require.NoError(t, storetests.Write(t, s, p.ID, p, 1, store.WithSources(src(2))).Err)

	require.True(t, consumer.WaitFor(2, time.Second))
	got := consumer.Dispatched()
	require.Equal(t, 1, got[0].State.DataVersion)
	require.Equal(t, 2, got[1].State.DataVersion)

	require.Eventually(t, func() bool {
		n, err := ctrl.Pending(t.Context())
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)
}
