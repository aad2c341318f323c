package symbio

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Metadata is the small context value attached to entries and states: the
// name of the operation that produced it, free-form string properties and an
// optional domain specific value.
//
// Metadata is immutable. The zero value is the empty metadata, which is what
// [EmptyMetadata] returns and what every record carries by default.
type Metadata struct {
	operation  string
	properties map[string]string
	value      any
}

// EmptyMetadata returns the empty metadata.
func EmptyMetadata() Metadata { return Metadata{} }

// NewMetadata creates metadata from all three parts. properties is copied.
func NewMetadata(value any, operation string, properties map[string]string) Metadata {
	return Metadata{operation: operation, properties: copyProperties(properties), value: value}
}

func MetadataWithOperation(operation string) Metadata { return Metadata{operation: operation} }
func MetadataWithValue(value any) Metadata            { return Metadata{value: value} }
func MetadataWithProperties(properties map[string]string) Metadata {
	return Metadata{properties: copyProperties(properties)}
}

func (m Metadata) Operation() string { return m.operation }
func (m Metadata) Value() any        { return m.value }

func (m Metadata) Property(key string) (string, bool) {
	v, ok := m.properties[key]
	return v, ok
}

// Properties returns a copy of the properties, nil when there are none.
func (m Metadata) Properties() map[string]string { return copyProperties(m.properties) }

// WithProperty returns a copy with key set to value.
func (m Metadata) WithProperty(key, value string) Metadata {
	props := make(map[string]string, len(m.properties)+1)
	maps.Copy(props, m.properties)
	props[key] = value
	m.properties = props
	return m
}

// WithOperation returns a copy with the operation replaced.
func (m Metadata) WithOperation(operation string) Metadata {
	m.operation = operation
	return m
}

func (m Metadata) HasOperation() bool  { return m.operation != "" }
func (m Metadata) HasProperties() bool { return len(m.properties) > 0 }
func (m Metadata) HasValue() bool      { return m.value != nil }
func (m Metadata) IsEmpty() bool       { return !m.HasOperation() && !m.HasProperties() && !m.HasValue() }

// Equal compares all fields structurally.
func (m Metadata) Equal(o Metadata) bool {
	return m.operation == o.operation &&
		maps.Equal(m.properties, o.properties) &&
		reflect.DeepEqual(m.value, o.value)
}

// Compare orders by operation, then by the printed value, then by the
// properties in key order.
func (m Metadata) Compare(o Metadata) int {
	if c := strings.Compare(m.operation, o.operation); c != 0 {
		return c
	}
	if c := strings.Compare(valueString(m.value), valueString(o.value)); c != 0 {
		return c
	}
	return strings.Compare(propertiesString(m.properties), propertiesString(o.properties))
}

func (m Metadata) String() string {
	return fmt.Sprintf("Metadata[operation=%s properties=%s value=%s]",
		m.operation, propertiesString(m.properties), valueString(m.value))
}

type metadataRecord struct {
	Operation  string            `json:"operation,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Value      any               `json:"value,omitempty"`
}

// MarshalJSON encodes the persisted layout {operation, properties, value}.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(metadataRecord{Operation: m.operation, Properties: m.properties, Value: m.value})
}

// UnmarshalJSON decodes the persisted layout. A decoded value holds generic
// JSON types (numbers become float64).
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var rec metadataRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*m = NewMetadata(rec.Value, rec.Operation, rec.Properties)
	return nil
}

func copyProperties(props map[string]string) map[string]string {
	if len(props) == 0 {
		return nil
	}
	return maps.Clone(props)
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func propertiesString(props map[string]string) string {
	if len(props) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(props)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(props[k])
	}
	b.WriteByte('}')
	return b.String()
}
