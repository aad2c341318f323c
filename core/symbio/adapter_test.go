package symbio

import (
	"sync"
	"testing"

	"github.com/codewandler/symbio-go/core/reflector"
	"github.com/stretchr/testify/require"
)

func TestJSONTextEntryAdapter_RoundTrip(t *testing.T) {
	a := JSONTextEntryAdapter[deposited](1)
	require.Equal(t, reflector.TypeNameFor[deposited](), a.SourceType())

	md := MetadataWithOperation("deposit")
	e, err := a.ToEntry(deposited{Account: "a-1", Amount: 10}, UnknownID, md)
	require.NoError(t, err)
	require.Equal(t, `{"Account":"a-1","Amount":10}`, e.Data())
	require.Equal(t, a.SourceType(), e.TypeName())
	require.True(t, md.Equal(e.Metadata()))

	src, err := a.FromEntry(e)
	require.NoError(t, err)
	require.Equal(t, deposited{Account: "a-1", Amount: 10}, src)

	_, err = a.ToEntry(&deposited{Amount: 1}, UnknownID, md)
	require.NoError(t, err, "pointer sources are accepted")

	_, err = a.ToEntry("nope", UnknownID, md)
	require.ErrorIs(t, err, ErrUnexpectedSource)
}

func TestJSONBinaryEntryAdapter_RoundTrip(t *testing.T) {
	a := JSONBinaryEntryAdapter[deposited](3)
	e, err := a.ToEntry(deposited{Amount: 5}, "9", EmptyMetadata())
	require.NoError(t, err)
	require.True(t, e.IsBinary())
	require.Equal(t, 3, e.TypeVersion())
	require.Equal(t, "9", e.ID())

	src, err := a.FromEntry(e)
	require.NoError(t, err)
	require.Equal(t, deposited{Amount: 5}, src)
}

func TestObjectEntryAdapter_RoundTrip(t *testing.T) {
	a := ObjectEntryAdapter[deposited](1)
	e, err := a.ToEntry(deposited{Amount: 5}, UnknownID, EmptyMetadata())
	require.NoError(t, err)
	require.True(t, e.IsObject())

	src, err := a.FromEntry(e)
	require.NoError(t, err)
	require.Equal(t, deposited{Amount: 5}, src)
}

func TestAdapterRegistry(t *testing.T) {
	r := NewAdapterRegistry[string]()
	require.NoError(t, r.Register(JSONTextEntryAdapter[deposited](1)))
	require.ErrorIs(t, r.Register(JSONTextEntryAdapter[deposited](1)), ErrAdapterAlreadyRegistered)

	entries, err := r.ToEntries([]any{deposited{Amount: 1}, &deposited{Amount: 2}}, MetadataWithOperation("op"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, UnknownID, e.ID())
		require.Equal(t, "op", e.Metadata().Operation())
	}

	sources, err := r.FromEntries(entries)
	require.NoError(t, err)
	require.Equal(t, []any{deposited{Amount: 1}, deposited{Amount: 2}}, sources)

	_, err = r.ToEntry(42, UnknownID, EmptyMetadata())
	require.ErrorIs(t, err, ErrAdapterNotRegistered)

	unknown, _ := NewTextEntry("1", "acme.Unknown", 1, "{}", EmptyMetadata())
	_, err = r.FromEntry(unknown)
	require.ErrorIs(t, err, ErrAdapterNotRegistered)

	require.ErrorIs(t, r.Register(JSONTextEntryAdapter[string](1)), ErrRegistryFrozen, "first use freezes")

	none, err := r.ToEntries(nil, EmptyMetadata())
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestAdapterRegistry_Default(t *testing.T) {
	r := NewAdapterRegistry[any]()
	fallback := ObjectEntryAdapter[deposited](1)
	require.NoError(t, r.SetDefault(fallback))
	r.Freeze()
	require.ErrorIs(t, r.SetDefault(fallback), ErrRegistryFrozen)

	a, err := r.AdapterFor("anything")
	require.NoError(t, err)
	require.Equal(t, fallback.SourceType(), a.SourceType())
}

func TestAdapterRegistry_ConcurrentLookups(t *testing.T) {
	r := NewAdapterRegistry[[]byte]().MustRegister(JSONBinaryEntryAdapter[deposited](1))

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			e, err := r.ToEntry(deposited{Amount: i}, UnknownID, EmptyMetadata())
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := r.FromEntry(e); err != nil {
				t.Error(err)
			}
		})
	}
	wg.Wait()
}

func TestStateAdapterRegistry(t *testing.T) {
	r := NewStateAdapterRegistry[string]().MustRegister(JSONTextStateAdapter[deposited](2))

	raw, err := r.ToRawState("acc-1", deposited{Account: "acc-1", Amount: 3}, 1, MetadataWithOperation("open"))
	require.NoError(t, err)
	require.Equal(t, "acc-1", raw.ID)
	require.Equal(t, reflector.TypeNameFor[deposited](), raw.Type)
	require.Equal(t, 2, raw.TypeVersion)
	require.Equal(t, 1, raw.DataVersion)
	require.Equal(t, `{"Account":"acc-1","Amount":3}`, raw.Data)

	state, err := r.FromRawState(raw)
	require.NoError(t, err)
	require.Equal(t, deposited{Account: "acc-1", Amount: 3}, state)

	_, err = r.ToRawState("", deposited{}, 1, EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)

	_, err = r.ToRawState("x", 1, 1, EmptyMetadata())
	require.ErrorIs(t, err, ErrAdapterNotRegistered)
}
