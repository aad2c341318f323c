package symbio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deposited struct {
	Account string
	Amount  int
}

func TestEntry_Validation(t *testing.T) {
	_, err := NewTextEntry(UnknownID, "", 1, "{}", EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewTextEntry(UnknownID, "acme.Deposited", 0, "{}", EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewBinaryEntry(UnknownID, "acme.Deposited", -1, nil, EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewObjectEntry[*deposited](UnknownID, "acme.Deposited", 1, nil, EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)

	_, err = NewObjectEntry[any](UnknownID, "acme.Deposited", 1, nil, EmptyMetadata())
	require.ErrorIs(t, err, ErrValidation)
}

func TestEntry_Accessors(t *testing.T) {
	md := MetadataWithOperation("deposit")
	e, err := NewTextEntry(UnknownID, "acme.Deposited", 2, `{"amount":10}`, md)
	require.NoError(t, err)

	require.Equal(t, UnknownID, e.ID())
	require.Equal(t, KindText, e.Kind())
	require.True(t, e.IsText())
	require.Equal(t, "acme.Deposited", e.TypeName())
	require.Equal(t, 2, e.TypeVersion())
	require.Equal(t, `{"amount":10}`, e.Data())
	require.True(t, e.HasMetadata())
	require.True(t, md.Equal(e.Metadata()))
	require.False(t, e.IsEmpty())
}

func TestEntry_WithID(t *testing.T) {
	e, err := NewBinaryEntry(UnknownID, "acme.Deposited", 1, []byte{1, 2, 3}, MetadataWithValue("v"))
	require.NoError(t, err)

	withID := e.WithID("42")
	require.Equal(t, "42", withID.ID())
	require.Equal(t, UnknownID, e.ID(), "original must be unchanged")
	require.Equal(t, e.Data(), withID.Data())
	require.Equal(t, e.TypeName(), withID.TypeName())
	require.Equal(t, e.TypeVersion(), withID.TypeVersion())
	require.True(t, e.Metadata().Equal(withID.Metadata()))

	null := NewNullEntry[[]byte]()
	require.Equal(t, null, null.WithID("42"))
	require.Equal(t, UnknownID, null.WithID("42").ID())
}

func TestEntry_Equality(t *testing.T) {
	a, _ := NewTextEntry("1", "acme.Deposited", 1, "a", EmptyMetadata())
	b, _ := NewTextEntry("1", "acme.Withdrawn", 3, "b", MetadataWithOperation("x"))
	c, _ := NewTextEntry("2", "acme.Deposited", 1, "a", EmptyMetadata())

	require.True(t, a.Equal(b), "same id means equal regardless of payload")
	require.Equal(t, a.Hash(), b.Hash())
	require.False(t, a.Equal(c))

	obj, _ := NewObjectEntry[string]("1", "acme.Deposited", 1, "a", EmptyMetadata())
	require.True(t, obj.Equal(obj.WithID("1")))
	require.False(t, obj.Equal(a), "kinds differ")
}

func TestEntry_IsEmpty(t *testing.T) {
	bin, _ := NewBinaryEntry(UnknownID, "t", 1, nil, EmptyMetadata())
	require.True(t, bin.IsEmpty())
	require.NotNil(t, bin.Data())

	text, _ := NewTextEntry(UnknownID, "t", 1, "  \n\t", EmptyMetadata())
	require.True(t, text.IsEmpty())

	obj, _ := NewObjectEntry[any](UnknownID, "t", 1, deposited{}, EmptyMetadata())
	require.True(t, obj.IsEmpty())

	obj, _ = NewObjectEntry[any](UnknownID, "t", 1, &deposited{Amount: 1}, EmptyMetadata())
	require.False(t, obj.IsEmpty())

	require.True(t, NewNullEntry[string]().IsEmpty())
	require.True(t, NewNullEntry[string]().IsNull())
}

func TestEntry_Compare(t *testing.T) {
	a, _ := NewTextEntry("1", "t", 1, "a", EmptyMetadata())
	b, _ := NewTextEntry("1", "t", 1, "b", EmptyMetadata())
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a))

	a2, _ := NewTextEntry("2", "t", 1, "a", EmptyMetadata())
	require.Negative(t, a.Compare(a2), "ties on payload fall through to id")

	x, _ := NewBinaryEntry("1", "t", 1, []byte{1}, EmptyMetadata())
	y, _ := NewBinaryEntry("1", "t", 1, []byte{2}, EmptyMetadata())
	z, _ := NewBinaryEntry("1", "t", 1, []byte{1}, EmptyMetadata())
	require.Equal(t, 1, x.Compare(y))
	require.Equal(t, 1, y.Compare(x))
	require.Zero(t, x.Compare(z))

	o, _ := NewObjectEntry[any]("1", "t", 1, deposited{Amount: 1}, EmptyMetadata())
	require.Equal(t, 1, o.Compare(o))
}

func TestEntry_JSON(t *testing.T) {
	md := NewMetadata(nil, "deposit", map[string]string{"tenant": "acme"})
	e, err := NewTextEntry("7", "acme.Deposited", 1, `{"amount":10}`, md)
	require.NoError(t, err)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"7","kind":"text","type":"acme.Deposited","typeVersion":1,
		"data":"{\"amount\":10}",
		"metadata":{"operation":"deposit","properties":{"tenant":"acme"}}
	}`, string(data))

	var decoded Entry[string]
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, e, decoded)

	var invalid Entry[string]
	err = json.Unmarshal([]byte(`{"id":"1","kind":"text","type":"","typeVersion":1,"data":""}`), &invalid)
	require.ErrorIs(t, err, ErrValidation)
}

func TestEntry_JSONBinary(t *testing.T) {
	e, err := NewBinaryEntry("1", "t", 1, []byte("hello"), EmptyMetadata())
	require.NoError(t, err)

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded Entry[[]byte]
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, []byte("hello"), decoded.Data())
	require.True(t, decoded.IsBinary())
}
