package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/reflector"
	"github.com/codewandler/symbio-go/core/store"
	"github.com/codewandler/symbio-go/core/store/storetests"
	"github.com/codewandler/symbio-go/core/symbio"
)

func newStateStore(t *testing.T, mutate ...func(*store.Options[string, string])) (*store.InMemoryStateStore[string, string], *dispatch.RecordingConsumer[string, string]) {
	t.Helper()
	rec := dispatch.NewRecordingConsumer[string, string](false)
	opt := store.Options[string, string]{
		Name:          "test",
		StateAdapters: storetests.StateAdapters(),
		EntryAdapters: storetests.EntryAdapters(),
		Dispatchers:   []dispatch.Dispatcher[string, string]{rec},
		Context:       t.Context(),
	}
	for _, m := range mutate {
		m(&opt)
	}
	s := store.NewInMemoryStateStore(opt)
	t.Cleanup(s.Stop)
	return s, rec
}

func TestStateStore_WriteDispatches(t *testing.T) {
	s, rec := newStateStore(t)

	person := storetests.Person{ID: "p-1", Name: "Tom Jones", Age: 85}
	res := storetests.Write(t, s, person.ID, person, store.NoVersion,
		store.WithSources(storetests.Test1Source{One: 1}))
	require.NoError(t, res.Err)
	require.Equal(t, store.Success, res.Outcome())
	require.Equal(t, 1, res.StateVersion)
	require.Equal(t, person, res.State)

	// dispatch happens before the result is reported
	require.Equal(t, 1, rec.Len())
	d := rec.Dispatched()[0]
	require.NotEmpty(t, d.ID)
	require.True(t, d.HasState())
	require.Equal(t, person.ID, d.State.ID)
	require.Equal(t, reflector.TypeNameFor[storetests.Person](), d.State.Type)
	require.Equal(t, 1, d.State.DataVersion)
	require.JSONEq(t, `{"id":"p-1","name":"Tom Jones","age":85}`, d.State.Data)

	require.Len(t, d.Entries, 1)
	e := d.Entries[0]
	require.Equal(t, "1", e.ID())
	require.Equal(t, reflector.TypeNameFor[storetests.Test1Source](), e.TypeName())
	require.True(t, e.Metadata().IsEmpty())
}

func TestStateStore_ReadAfterWrite(t *testing.T) {
	s, _ := newStateStore(t)

	person := storetests.Person{ID: "p-1", Name: "Tom Jones", Age: 85}
	md := symbio.MetadataWithOperation("create")
	require.NoError(t, storetests.Write(t, s, person.ID, person, store.NoVersion, store.WithMetadata(md)).Err)

	res := storetests.Read(t, s, person.ID, store.WithObject("ctx"))
	require.NoError(t, res.Err)
	require.Equal(t, person, res.State)
	require.Equal(t, 1, res.StateVersion)
	require.Equal(t, "create", res.Metadata.Operation())
	require.Equal(t, "ctx", res.Object)
}

func TestStateStore_ReadMissing(t *testing.T) {
	s, _ := newStateStore(t)

	res := storetests.Read(t, s, "nobody")
	require.ErrorIs(t, res.Err, store.ErrNotFound)
	require.Equal(t, store.NotFound, res.Outcome())
	require.Equal(t, "nobody", res.ID)
}

func TestStateStore_ConcurrencyConflict(t *testing.T) {
	s, rec := newStateStore(t)

	p := storetests.Person{ID: "p-1", Name: "Tom", Age: 1}
	require.NoError(t, storetests.Write(t, s, p.ID, p, store.NoVersion).Err)

	p.Age = 2
	res := storetests.Write(t, s, p.ID, p, store.NoVersion)
	require.ErrorIs(t, res.Err, store.ErrConcurrencyConflict)
	require.Equal(t, store.ConcurrencyViolation, res.Outcome())
	require.Equal(t, 1, rec.Len())

	res = storetests.Write(t, s, p.ID, p, 1)
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.StateVersion)

	read := storetests.Read(t, s, p.ID)
	require.Equal(t, p, read.State)
	require.Equal(t, 2, read.StateVersion)
}

func TestStateStore_ConcurrentWritesOneWins(t *testing.T) {
	s, rec := newStateStore(t)

	p := storetests.Person{ID: "p-1", Name: "Tom Jones", Age: 85}
	require.NoError(t, storetests.Write(t, s, p.ID, p, store.NoVersion).Err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []store.Outcome
	)
	for age := range 2 {
		wg.Add(1)
		candidate := storetests.Person{ID: p.ID, Name: p.Name, Age: 90 + age}
		s.Write(t.Context(), p.ID, candidate, 1, store.WriteResultFunc(func(r store.WriteResult) {
			defer wg.Done()
			mu.Lock()
			outcomes = append(outcomes, r.Outcome())
			mu.Unlock()
		}))
	}
	wg.Wait()

	require.ElementsMatch(t, []store.Outcome{store.Success, store.ConcurrencyViolation}, outcomes)
	require.Equal(t, 2, rec.Len())

	read := storetests.Read(t, s, p.ID)
	require.Equal(t, 2, read.StateVersion)
	require.Contains(t, []int{90, 91}, read.State.(storetests.Person).Age)
}

func TestStateStore_StorageFailureLeavesNothing(t *testing.T) {
	boom := errors.New("disk on fire")
	s, rec := newStateStore(t, func(o *store.Options[string, string]) {
		o.BeforeCommit = func(id string) error {
			if id == "p-1" {
				return boom
			}
			return nil
		}
	})

	p := storetests.Person{ID: "p-1", Name: "Tom", Age: 1}
	res := storetests.Write(t, s, p.ID, p, store.NoVersion, store.WithSources(storetests.Test1Source{One: 1}))
	require.ErrorIs(t, res.Err, store.ErrStorageFailure)
	require.ErrorIs(t, res.Err, boom)
	require.Equal(t, store.StorageFailure, res.Outcome())

	var se *store.StorageError
	require.ErrorAs(t, res.Err, &se)
	require.Equal(t, "p-1", se.ID)

	require.ErrorIs(t, storetests.Read(t, s, p.ID).Err, store.ErrNotFound)
	require.Zero(t, rec.Len())

	r, err := s.EntryReader(t.Context(), "check")
	require.NoError(t, err)
	size, err := r.Size(t.Context())
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestStateStore_AdapterNotRegistered(t *testing.T) {
	s, rec := newStateStore(t)

	type unknownSource struct{ X int }
	p := storetests.Person{ID: "p-1", Name: "Tom", Age: 1}
	res := storetests.Write(t, s, p.ID, p, store.NoVersion, store.WithSources(unknownSource{X: 1}))
	require.ErrorIs(t, res.Err, symbio.ErrAdapterNotRegistered)
	require.Equal(t, store.AdapterNotRegistered, res.Outcome())
	require.Zero(t, rec.Len())

	type unknownState struct{ ID string }
	res = storetests.Write(t, s, "u-1", unknownState{ID: "u-1"}, store.NoVersion)
	require.Equal(t, store.AdapterNotRegistered, res.Outcome())

	require.ErrorIs(t, storetests.Read(t, s, p.ID).Err, store.ErrNotFound)
}

func TestStateStore_Validation(t *testing.T) {
	s, _ := newStateStore(t)

	res := storetests.Write(t, s, "", storetests.Person{}, store.NoVersion)
	require.Equal(t, store.ValidationFailure, res.Outcome())

	res = storetests.Write(t, s, "p-1", nil, store.NoVersion)
	require.Equal(t, store.ValidationFailure, res.Outcome())

	require.Equal(t, store.ValidationFailure, storetests.Read(t, s, "").Outcome())

	_, err := s.EntryReader(t.Context(), "")
	require.ErrorIs(t, err, symbio.ErrValidation)
}

func TestStateStore_Stopped(t *testing.T) {
	s, _ := newStateStore(t)
	s.Stop()

	res := storetests.Write(t, s, "p-1", storetests.Person{ID: "p-1"}, store.NoVersion)
	require.Equal(t, store.StorageFailure, res.Outcome())
}

func TestStateStore_NilInterest(t *testing.T) {
	s, rec := newStateStore(t)

	s.Write(t.Context(), "p-1", storetests.Person{ID: "p-1"}, store.NoVersion, nil)
	require.True(t, rec.WaitFor(1, time.Second))
}

func TestStateStore_EntriesInCommitOrder(t *testing.T) {
	s, _ := newStateStore(t)

	for i := range 3 {
		id := "p-" + string(rune('a'+i))
		res := storetests.Write(t, s, id, storetests.Person{ID: id}, store.NoVersion,
			store.WithSources(storetests.Test1Source{One: i}, storetests.PersonRenamed{ID: id, Name: "x"}))
		require.NoError(t, res.Err)
	}

	r, err := s.EntryReader(t.Context(), "all")
	require.NoError(t, err)
	entries, err := r.ReadNextN(t.Context(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for i, e := range entries {
		assert.Equal(t, string(rune('1'+i)), e.ID())
	}
	require.Equal(t, reflector.TypeNameFor[storetests.PersonRenamed](), entries[1].TypeName())
}

func TestStateStore_DispatcherPanicKeepsWrite(t *testing.T) {
	s, rec := newStateStore(t, func(o *store.Options[string, string]) {
		o.Dispatchers = append([]dispatch.Dispatcher[string, string]{
			dispatch.DispatcherFunc[string, string](func(context.Context, dispatch.Dispatchable[string, string]) error {
				panic("consumer bug")
			}),
		}, o.Dispatchers...)
	})

	p := storetests.Person{ID: "p-1", Name: "Tom", Age: 1}
	res := storetests.Write(t, s, p.ID, p, store.NoVersion)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.StateVersion)

	// the dispatchers after the panicking one still see the write
	require.Equal(t, 1, rec.Len())

	read := storetests.Read(t, s, p.ID)
	require.NoError(t, read.Err)
	require.Equal(t, 1, read.StateVersion)
}

func TestStateStore_PanickingInterestCalledOnce(t *testing.T) {
	s, _ := newStateStore(t)

	var (
		mu    sync.Mutex
		calls int
	)
	s.Write(t.Context(), "p-1", storetests.Person{ID: "p-1"}, store.NoVersion, store.WriteResultFunc(func(store.WriteResult) {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("interest bug")
	}))

	// the store keeps serving after the panic
	read := storetests.Read(t, s, "p-1")
	require.NoError(t, read.Err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestStateStore_StopFailsQueuedWrites(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	s, _ := newStateStore(t, func(o *store.Options[string, string]) {
		o.Dispatchers = []dispatch.Dispatcher[string, string]{
			dispatch.DispatcherFunc[string, string](func(ctx context.Context, _ dispatch.Dispatchable[string, string]) error {
				once.Do(func() { close(started) })
				<-ctx.Done()
				return ctx.Err()
			}),
		}
	})

	var (
		mu      sync.Mutex
		results = map[string]store.WriteResult{}
	)
	write := func(id string) {
		s.Write(t.Context(), id, storetests.Person{ID: id}, store.NoVersion, store.WriteResultFunc(func(r store.WriteResult) {
			mu.Lock()
			results[id] = r
			mu.Unlock()
		}))
	}

	write("p-1")
	<-started
	write("p-2")
	write("p-3")
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 3)
	require.NoError(t, results["p-1"].Err)
	for _, id := range []string{"p-2", "p-3"} {
		require.Equal(t, store.StorageFailure, results[id].Outcome(), id)
		require.ErrorIs(t, results[id].Err, actor.ErrStopped, id)
	}
}
