package symbio

import (
	"fmt"
	"strings"
)

// State is the persisted raw form of an object's snapshot. RS is the raw
// representation: string for text stores, []byte for binary stores and any
// for object stores.
//
// DataVersion is the optimistic concurrency version of the snapshot.
type State[RS any] struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	TypeVersion int      `json:"typeVersion"`
	Data        RS       `json:"data"`
	DataVersion int      `json:"dataVersion"`
	Metadata    Metadata `json:"metadata"`
}

// NewState creates a validated raw state.
func NewState[RS any](id, typeName string, typeVersion int, data RS, dataVersion int, md Metadata) (State[RS], error) {
	s := State[RS]{
		ID:          id,
		Type:        typeName,
		TypeVersion: typeVersion,
		Data:        data,
		DataVersion: dataVersion,
		Metadata:    md,
	}
	if err := s.Validate(); err != nil {
		return State[RS]{}, err
	}
	return s, nil
}

func (s State[RS]) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("%w: state id must not be empty", ErrValidation)
	case s.Type == "":
		return fmt.Errorf("%w: state type must not be empty", ErrValidation)
	case s.TypeVersion <= 0:
		return fmt.Errorf("%w: state type version must be greater than 0, got %d", ErrValidation, s.TypeVersion)
	case isNil(s.Data):
		return fmt.Errorf("%w: state data must not be nil", ErrValidation)
	}
	return nil
}

// WithDataVersion returns a copy carrying version.
func (s State[RS]) WithDataVersion(version int) State[RS] {
	s.DataVersion = version
	return s
}

// IsEmpty reports whether the raw data carries nothing, using the same rules
// as [Entry.IsEmpty].
func (s State[RS]) IsEmpty() bool {
	switch d := any(s.Data).(type) {
	case []byte:
		return len(d) == 0
	case string:
		return strings.TrimSpace(d) == ""
	default:
		return isZero(d)
	}
}

func (s State[RS]) String() string {
	return fmt.Sprintf("State[id=%s type=%s typeVersion=%d dataVersion=%d metadata=%s]",
		s.ID, s.Type, s.TypeVersion, s.DataVersion, s.Metadata)
}
