package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestJSON_RoundTrip(t *testing.T) {
	data, err := Encode(JSON{}, person{Name: "Tom Jones", Age: 85})
	require.NoError(t, err)
	require.Equal(t, `{"name":"Tom Jones","age":85}`, string(data))

	p, err := Decode[person](JSON{}, data)
	require.NoError(t, err)
	require.Equal(t, person{Name: "Tom Jones", Age: 85}, p)
}

func TestJSON_Errors(t *testing.T) {
	_, err := Encode(JSON{}, make(chan int))
	require.ErrorContains(t, err, "encode chan int")

	_, err = Decode[person](JSON{}, []byte("{"))
	require.ErrorContains(t, err, "decode codec.person")
}
