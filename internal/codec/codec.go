// Package codec holds the serialization used by the JSON entry and state
// adapters.
package codec

import (
	"encoding/json"
	"fmt"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is compact encoding/json. Persisted payloads are compact so that
// text entries compare lexicographically on content, not on whitespace.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// Encode marshals v with c and wraps failures with the type being encoded.
func Encode(c Codec, v any) ([]byte, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

// Decode unmarshals data into a fresh T.
func Decode[T any](c Codec, data []byte) (out T, err error) {
	if err = c.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
