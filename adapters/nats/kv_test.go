package nats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/symbio"
	"github.com/codewandler/symbio-go/ports/kv"
)

func TestKV(t *testing.T) {
	type fooBar struct {
		Fruit string
		Count int
	}
	store, err := NewKvStore(t.Context(), KvConfig{
		Bucket:  "fruits",
		Connect: NewTestContainer(t),
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	ctx := t.Context()
	require.NoError(t, kv.Put(ctx, store, "apple", fooBar{Fruit: "apple", Count: 10}, kv.PutOptions{}))

	v, err := kv.Get[fooBar](ctx, store, "apple")
	require.NoError(t, err)
	require.Equal(t, fooBar{Fruit: "apple", Count: 10}, v)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"apple"}, keys)

	require.NoError(t, store.Delete(ctx, "apple"))
	_, err = store.Get(ctx, "apple")
	require.ErrorIs(t, err, kv.ErrNotFound)

	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestKV_TrackerSurvivesReconnect(t *testing.T) {
	connect := NewTestContainer(t)
	ctx := t.Context()

	first, err := NewKvStore(ctx, KvConfig{Bucket: "pending", Connect: connect})
	require.NoError(t, err)

	state, err := symbio.NewState("p-1", "person", 1, `{"id":"p-1"}`, 1, symbio.EmptyMetadata())
	require.NoError(t, err)
	d := dispatch.NewDispatchable[string, string]("d-1", time.Now(), &state, nil)

	tr := NewTracker[string, string](first, "")
	require.NoError(t, tr.Add(ctx, dispatch.Pending[string, string]{Dispatchable: d, Attempts: 1}))
	first.Close()

	second, err := NewKvStore(ctx, KvConfig{Bucket: "pending", Connect: connect})
	require.NoError(t, err)
	t.Cleanup(second.Close)

	pending, err := NewTracker[string, string](second, "").Unconfirmed(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "d-1", pending[0].Dispatchable.ID)
	require.Equal(t, "p-1", pending[0].Dispatchable.State.ID)
}
