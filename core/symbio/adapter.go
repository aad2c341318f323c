package symbio

import (
	"fmt"

	"github.com/codewandler/symbio-go/core/reflector"
	"github.com/codewandler/symbio-go/internal/codec"
)

// EntryAdapter converts between domain sources and entries of payload T.
//
// SourceType reports the logical type name the adapter handles; it is the
// same name the adapter writes into every entry's TypeName.
type EntryAdapter[T any] interface {
	SourceType() string
	ToEntry(source any, id string, md Metadata) (Entry[T], error)
	FromEntry(e Entry[T]) (any, error)
}

// TypedEntryAdapter is the statically typed form of an [EntryAdapter].
// Wrap it with [Adapt] to register it.
type TypedEntryAdapter[S, T any] interface {
	ToEntry(source S, id string, md Metadata) (Entry[T], error)
	FromEntry(e Entry[T]) (S, error)
}

// EntryAdapterFuncs implements [TypedEntryAdapter] with plain functions.
type EntryAdapterFuncs[S, T any] struct {
	To   func(source S, id string, md Metadata) (Entry[T], error)
	From func(e Entry[T]) (S, error)
}

func (f EntryAdapterFuncs[S, T]) ToEntry(source S, id string, md Metadata) (Entry[T], error) {
	return f.To(source, id, md)
}

func (f EntryAdapterFuncs[S, T]) FromEntry(e Entry[T]) (S, error) { return f.From(e) }

// Adapt turns a typed adapter into an [EntryAdapter] for source type S.
// Both S and *S sources are accepted.
func Adapt[S, T any](a TypedEntryAdapter[S, T]) EntryAdapter[T] {
	return &typedEntryAdapter[S, T]{
		sourceType: reflector.TypeNameFor[S](),
		typed:      a,
	}
}

type typedEntryAdapter[S, T any] struct {
	sourceType string
	typed      TypedEntryAdapter[S, T]
}

func (a *typedEntryAdapter[S, T]) SourceType() string { return a.sourceType }

func (a *typedEntryAdapter[S, T]) ToEntry(source any, id string, md Metadata) (Entry[T], error) {
	s, err := sourceAs[S](source)
	if err != nil {
		return Entry[T]{}, err
	}
	return a.typed.ToEntry(s, id, md)
}

func (a *typedEntryAdapter[S, T]) FromEntry(e Entry[T]) (any, error) {
	if e.TypeName() != a.sourceType {
		return nil, fmt.Errorf("%w: adapter for %s cannot read entry of type %s",
			ErrUnexpectedSource, a.sourceType, e.TypeName())
	}
	return a.typed.FromEntry(e)
}

func sourceAs[S any](source any) (S, error) {
	switch s := source.(type) {
	case S:
		return s, nil
	case *S:
		if s != nil {
			return *s, nil
		}
	}
	var zero S
	return zero, fmt.Errorf("%w: want %s, got %T", ErrUnexpectedSource, reflector.TypeNameFor[S](), source)
}

// JSONTextEntryAdapter stores S as compact JSON in text entries.
func JSONTextEntryAdapter[S any](typeVersion int) EntryAdapter[string] {
	typeName := reflector.TypeNameFor[S]()
	return Adapt[S, string](EntryAdapterFuncs[S, string]{
		To: func(source S, id string, md Metadata) (Entry[string], error) {
			data, err := codec.Encode(codec.JSON{}, source)
			if err != nil {
				return Entry[string]{}, err
			}
			return NewTextEntry(id, typeName, typeVersion, string(data), md)
		},
		From: func(e Entry[string]) (S, error) {
			return codec.Decode[S](codec.JSON{}, []byte(e.Data()))
		},
	})
}

// JSONBinaryEntryAdapter stores S as compact JSON in binary entries.
func JSONBinaryEntryAdapter[S any](typeVersion int) EntryAdapter[[]byte] {
	typeName := reflector.TypeNameFor[S]()
	return Adapt[S, []byte](EntryAdapterFuncs[S, []byte]{
		To: func(source S, id string, md Metadata) (Entry[[]byte], error) {
			data, err := codec.Encode(codec.JSON{}, source)
			if err != nil {
				return Entry[[]byte]{}, err
			}
			return NewBinaryEntry(id, typeName, typeVersion, data, md)
		},
		From: func(e Entry[[]byte]) (S, error) {
			return codec.Decode[S](codec.JSON{}, e.Data())
		},
	})
}

// ObjectEntryAdapter stores S unchanged in object entries.
func ObjectEntryAdapter[S any](typeVersion int) EntryAdapter[any] {
	typeName := reflector.TypeNameFor[S]()
	return Adapt[S, any](EntryAdapterFuncs[S, any]{
		To: func(source S, id string, md Metadata) (Entry[any], error) {
			return NewObjectEntry[any](id, typeName, typeVersion, source, md)
		},
		From: func(e Entry[any]) (S, error) {
			return sourceAs[S](e.Data())
		},
	})
}

// AdapterRegistry resolves the [EntryAdapter] for a source type.
//
// Registration happens during setup. The first conversion freezes the
// registry; later calls to Register fail with [ErrRegistryFrozen].
type AdapterRegistry[T any] struct {
	table adapterTable[EntryAdapter[T]]
}

func NewAdapterRegistry[T any]() *AdapterRegistry[T] {
	return &AdapterRegistry[T]{}
}

// Register adds adapters keyed by their source type.
func (r *AdapterRegistry[T]) Register(adapters ...EntryAdapter[T]) error {
	for _, a := range adapters {
		if err := r.table.register(a.SourceType(), a); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is Register for setup code; it panics on error.
func (r *AdapterRegistry[T]) MustRegister(adapters ...EntryAdapter[T]) *AdapterRegistry[T] {
	if err := r.Register(adapters...); err != nil {
		panic(err)
	}
	return r
}

// SetDefault installs the adapter used for unregistered source types.
func (r *AdapterRegistry[T]) SetDefault(a EntryAdapter[T]) error { return r.table.setDefault(a) }

// Freeze stops further registration.
func (r *AdapterRegistry[T]) Freeze() { r.table.close() }

func (r *AdapterRegistry[T]) Len() int { return r.table.len() }

// AdapterFor returns the adapter registered for sourceType.
func (r *AdapterRegistry[T]) AdapterFor(sourceType string) (EntryAdapter[T], error) {
	return r.table.lookup(sourceType)
}

// ToEntry converts source with the adapter registered for its dynamic type.
func (r *AdapterRegistry[T]) ToEntry(source any, id string, md Metadata) (Entry[T], error) {
	a, err := r.table.lookup(reflector.TypeNameOf(source))
	if err != nil {
		return Entry[T]{}, err
	}
	return a.ToEntry(source, id, md)
}

// ToEntries converts every source with [UnknownID]. Each entry carries md.
func (r *AdapterRegistry[T]) ToEntries(sources []any, md Metadata) ([]Entry[T], error) {
	if len(sources) == 0 {
		return NoEntries[T](), nil
	}
	entries := make([]Entry[T], 0, len(sources))
	for _, s := range sources {
		e, err := r.ToEntry(s, UnknownID, md)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FromEntry reconstructs the source using the adapter named by e.TypeName.
func (r *AdapterRegistry[T]) FromEntry(e Entry[T]) (any, error) {
	a, err := r.table.lookup(e.TypeName())
	if err != nil {
		return nil, err
	}
	return a.FromEntry(e)
}

func (r *AdapterRegistry[T]) FromEntries(entries []Entry[T]) ([]any, error) {
	sources := make([]any, 0, len(entries))
	for _, e := range entries {
		s, err := r.FromEntry(e)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}
