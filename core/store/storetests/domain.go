// Package storetests provides the domain fixtures and await helpers shared by
// store tests.
package storetests

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/store"
	"github.com/codewandler/symbio-go/core/symbio"
)

type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func (p Person) PersistenceID() string { return p.ID }

// Test1Source is a plain domain source.
type Test1Source struct {
	One int `json:"one"`
}

type PersonRenamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StateAdapters registers the JSON text adapter for Person.
func StateAdapters() *symbio.StateAdapterRegistry[string] {
	return symbio.NewStateAdapterRegistry[string]().
		MustRegister(symbio.JSONTextStateAdapter[Person](1))
}

// EntryAdapters registers JSON text adapters for the test sources.
func EntryAdapters() *symbio.AdapterRegistry[string] {
	return symbio.NewAdapterRegistry[string]().MustRegister(
		symbio.JSONTextEntryAdapter[Test1Source](1),
		symbio.JSONTextEntryAdapter[PersonRenamed](1),
	)
}

func Write(t *testing.T, s store.StateStore[string, string], id string, state any, version int, opts ...store.Option) store.WriteResult {
	t.Helper()
	c := actor.NewCompletes[store.WriteResult]()
	s.Write(t.Context(), id, state, version, store.WriteResultFunc(c.Complete), opts...)
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}

func Read(t *testing.T, s store.StateStore[string, string], id string, opts ...store.Option) store.ReadResult {
	t.Helper()
	c := actor.NewCompletes[store.ReadResult]()
	s.Read(t.Context(), id, store.ReadResultFunc(c.Complete), opts...)
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}

func Persist(t *testing.T, s store.ObjectStore[string, string], obj store.StateObject, version int, opts ...store.Option) store.WriteResult {
	t.Helper()
	c := actor.NewCompletes[store.WriteResult]()
	s.Persist(t.Context(), obj, version, store.WriteResultFunc(c.Complete), opts...)
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}

func QueryObject(t *testing.T, s store.ObjectStore[string, string], q store.QueryExpression) store.QueryResult {
	t.Helper()
	c := actor.NewCompletes[store.QueryResult]()
	s.QueryObject(t.Context(), q, store.QueryResultFunc(c.Complete))
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}

func QueryAll(t *testing.T, s store.ObjectStore[string, string], q store.QueryExpression) store.QueryResult {
	t.Helper()
	c := actor.NewCompletes[store.QueryResult]()
	s.QueryAll(t.Context(), q, store.QueryResultFunc(c.Complete))
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}

func AppendAll(t *testing.T, j store.Journal[string, string], stream string, from int, sources []any, opts ...store.Option) store.AppendResult {
	t.Helper()
	c := actor.NewCompletes[store.AppendResult]()
	j.AppendAll(t.Context(), stream, from, sources, store.AppendResultFunc(c.Complete), opts...)
	res, err := c.Await(t.Context())
	require.NoError(t, err)
	return res
}
