// Package symbio defines the durable record model shared by journals,
// state stores and object stores.
//
// # Entries
//
// An [Entry] is one immutable journal record of a domain fact. It is a tagged
// variant over a shared shell (id, type name, type version, metadata):
//
//	binary, _ := symbio.NewBinaryEntry(symbio.UnknownID, "acme.Deposited", 1, payload, symbio.EmptyMetadata())
//	text, _ := symbio.NewTextEntry(symbio.UnknownID, "acme.Deposited", 1, `{"amount":10}`, md)
//	object, _ := symbio.NewObjectEntry[any](symbio.UnknownID, "acme.Deposited", 1, Deposited{10}, md)
//	none := symbio.NewNullEntry[string]()
//
// Entries start with [UnknownID]; the store assigns the identity at commit
// time through [Entry.WithID], which returns a copy.
//
// Entries are equal when their kinds and ids are equal, regardless of payload.
// Consumers must not rely on content equality.
//
// # Adapters
//
// An [EntryAdapter] converts a domain source into an entry and back. Adapters
// are registered once per source type in an [AdapterRegistry], which freezes
// on first use:
//
//	entries := symbio.NewAdapterRegistry[string]()
//	_ = entries.Register(symbio.JSONTextEntryAdapter[Deposited](1))
//
// [StateAdapter] and [StateAdapterRegistry] do the same for the snapshot
// state kept by state and object stores.
package symbio
