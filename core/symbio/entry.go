package symbio

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"reflect"
	"strings"

	"github.com/codewandler/symbio-go/core/reflector"
)

// UnknownID is the id of an entry that has not been persisted yet.
const UnknownID = ""

// Kind tags the payload representation of an [Entry].
type Kind uint8

const (
	KindNull Kind = iota
	KindBinary
	KindText
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBinary:
		return "binary"
	case KindText:
		return "text"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "null":
		*k = KindNull
	case "binary":
		*k = KindBinary
	case "text":
		*k = KindText
	case "object":
		*k = KindObject
	default:
		return fmt.Errorf("%w: unknown entry kind %q", ErrValidation, b)
	}
	return nil
}

// Entry is an immutable journal record carrying a payload of type T.
//
// Use the kind specific constructors; the zero value is not a valid entry.
// Binary entries are Entry[[]byte], text entries Entry[string] and object
// entries carry the domain value directly.
type Entry[T any] struct {
	id          string
	kind        Kind
	typeName    string
	typeVersion int
	data        T
	metadata    Metadata
}

// NewBinaryEntry creates a binary entry. A nil payload is stored as an empty
// byte slice.
func NewBinaryEntry(id, typeName string, typeVersion int, data []byte, md Metadata) (Entry[[]byte], error) {
	if data == nil {
		data = []byte{}
	}
	return newEntry(KindBinary, id, typeName, typeVersion, data, md)
}

func NewTextEntry(id, typeName string, typeVersion int, data string, md Metadata) (Entry[string], error) {
	return newEntry(KindText, id, typeName, typeVersion, data, md)
}

// NewObjectEntry creates an entry holding the domain value itself. A nil
// pointer, map, slice or interface payload is rejected.
func NewObjectEntry[T any](id, typeName string, typeVersion int, data T, md Metadata) (Entry[T], error) {
	return newEntry(KindObject, id, typeName, typeVersion, data, md)
}

// NewNullEntry returns the placeholder entry. It is always empty and has no
// identity.
func NewNullEntry[T any]() Entry[T] {
	return Entry[T]{
		kind:        KindNull,
		typeName:    reflector.TypeNameFor[T](),
		typeVersion: 1,
	}
}

// NoEntries is the empty entry list.
func NoEntries[T any]() []Entry[T] { return nil }

func newEntry[T any](kind Kind, id, typeName string, typeVersion int, data T, md Metadata) (Entry[T], error) {
	if typeName == "" {
		return Entry[T]{}, fmt.Errorf("%w: entry type name must not be empty", ErrValidation)
	}
	if typeVersion <= 0 {
		return Entry[T]{}, fmt.Errorf("%w: entry type version must be greater than 0, got %d", ErrValidation, typeVersion)
	}
	if isNil(data) {
		return Entry[T]{}, fmt.Errorf("%w: entry data must not be nil", ErrValidation)
	}
	return Entry[T]{
		id:          id,
		kind:        kind,
		typeName:    typeName,
		typeVersion: typeVersion,
		data:        data,
		metadata:    md,
	}, nil
}

func (e Entry[T]) ID() string         { return e.id }
func (e Entry[T]) Kind() Kind         { return e.kind }
func (e Entry[T]) TypeName() string   { return e.typeName }
func (e Entry[T]) TypeVersion() int   { return e.typeVersion }
func (e Entry[T]) Data() T            { return e.data }
func (e Entry[T]) Metadata() Metadata { return e.metadata }

func (e Entry[T]) HasMetadata() bool { return !e.metadata.IsEmpty() }
func (e Entry[T]) IsNull() bool      { return e.kind == KindNull }
func (e Entry[T]) IsBinary() bool    { return e.kind == KindBinary }
func (e Entry[T]) IsText() bool      { return e.kind == KindText }
func (e Entry[T]) IsObject() bool    { return e.kind == KindObject }

// IsEmpty reports whether the payload carries nothing: a zero length binary,
// a blank text, or an object equal to its type's zero value. The null entry
// is always empty.
func (e Entry[T]) IsEmpty() bool {
	switch e.kind {
	case KindNull:
		return true
	case KindBinary:
		b, _ := any(e.data).([]byte)
		return len(b) == 0
	case KindText:
		s, _ := any(e.data).(string)
		return strings.TrimSpace(s) == ""
	default:
		return isZero(e.data)
	}
}

// WithID returns a copy carrying id. The null entry is returned unchanged.
func (e Entry[T]) WithID(id string) Entry[T] {
	if e.kind == KindNull {
		return e
	}
	e.id = id
	return e
}

// Equal reports identity equality: same kind and same id. Payloads are not
// compared.
func (e Entry[T]) Equal(o Entry[T]) bool {
	return e.kind == o.kind && e.id == o.id
}

// Hash is consistent with Equal.
func (e Entry[T]) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.id))
	return 31 * h.Sum64()
}

// Compare orders entries by payload, then id, type name, type version and
// metadata. Only text payloads order lexicographically; binary payloads
// yield 0 when byte-equal and 1 otherwise, and all other payloads yield 1.
// The result is therefore not antisymmetric and must not be used for
// sorting.
func (e Entry[T]) Compare(o Entry[T]) int {
	if c := comparePayload(e, o); c != 0 {
		return c
	}
	if c := strings.Compare(e.id, o.id); c != 0 {
		return c
	}
	if c := strings.Compare(e.typeName, o.typeName); c != 0 {
		return c
	}
	if c := cmp.Compare(e.typeVersion, o.typeVersion); c != 0 {
		return c
	}
	return e.metadata.Compare(o.metadata)
}

func comparePayload[T any](a, b Entry[T]) int {
	switch {
	case a.kind == KindText && b.kind == KindText:
		as, _ := any(a.data).(string)
		bs, _ := any(b.data).(string)
		return strings.Compare(as, bs)
	case a.kind == KindBinary && b.kind == KindBinary:
		ab, _ := any(a.data).([]byte)
		bb, _ := any(b.data).([]byte)
		if bytes.Equal(ab, bb) {
			return 0
		}
		return 1
	default:
		return 1
	}
}

func (e Entry[T]) String() string {
	var data any = e.data
	if e.kind == KindBinary {
		b, _ := any(e.data).([]byte)
		data = fmt.Sprintf("(%d bytes)", len(b))
	}
	return fmt.Sprintf("%sEntry[id=%s type=%s typeVersion=%d data=%v metadata=%s]",
		e.kind, e.id, e.typeName, e.typeVersion, data, e.metadata)
}

type entryRecord[T any] struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Type        string   `json:"type"`
	TypeVersion int      `json:"typeVersion"`
	Data        T        `json:"data"`
	Metadata    Metadata `json:"metadata"`
}

func (e Entry[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryRecord[T]{
		ID:          e.id,
		Kind:        e.kind,
		Type:        e.typeName,
		TypeVersion: e.typeVersion,
		Data:        e.data,
		Metadata:    e.metadata,
	})
}

// UnmarshalJSON decodes and re-validates an entry.
func (e *Entry[T]) UnmarshalJSON(b []byte) error {
	var rec entryRecord[T]
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	if rec.Kind == KindNull {
		*e = NewNullEntry[T]()
		return nil
	}
	if bs, ok := any(rec.Data).([]byte); ok && bs == nil && rec.Kind == KindBinary {
		rec.Data = any([]byte{}).(T)
	}
	decoded, err := newEntry(rec.Kind, rec.ID, rec.Type, rec.TypeVersion, rec.Data, rec.Metadata)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.IsZero()
}
