package symbio

import (
	"fmt"

	"github.com/codewandler/symbio-go/core/reflector"
	"github.com/codewandler/symbio-go/internal/codec"
)

// StateAdapter converts between a domain state object and its raw [State].
type StateAdapter[RS any] interface {
	StateType() string
	TypeVersion() int
	ToRawState(id string, state any, stateVersion int, md Metadata) (State[RS], error)
	FromRawState(raw State[RS]) (any, error)
}

// StateAdapterFuncs builds a [StateAdapter] for state type S from encode and
// decode functions of the raw payload.
type StateAdapterFuncs[S, RS any] struct {
	Version int
	Encode  func(state S) (RS, error)
	Decode  func(raw RS) (S, error)
}

func (f StateAdapterFuncs[S, RS]) StateType() string { return reflector.TypeNameFor[S]() }

func (f StateAdapterFuncs[S, RS]) TypeVersion() int { return max(f.Version, 1) }

func (f StateAdapterFuncs[S, RS]) ToRawState(id string, state any, stateVersion int, md Metadata) (State[RS], error) {
	s, err := sourceAs[S](state)
	if err != nil {
		return State[RS]{}, err
	}
	data, err := f.Encode(s)
	if err != nil {
		return State[RS]{}, err
	}
	return NewState(id, f.StateType(), f.TypeVersion(), data, stateVersion, md)
}

func (f StateAdapterFuncs[S, RS]) FromRawState(raw State[RS]) (any, error) {
	if raw.Type != f.StateType() {
		return nil, fmt.Errorf("%w: adapter for %s cannot read state of type %s",
			ErrUnexpectedSource, f.StateType(), raw.Type)
	}
	return f.Decode(raw.Data)
}

// JSONTextStateAdapter stores S as compact JSON text.
func JSONTextStateAdapter[S any](typeVersion int) StateAdapter[string] {
	return StateAdapterFuncs[S, string]{
		Version: typeVersion,
		Encode: func(state S) (string, error) {
			data, err := codec.Encode(codec.JSON{}, state)
			return string(data), err
		},
		Decode: func(raw string) (S, error) { return codec.Decode[S](codec.JSON{}, []byte(raw)) },
	}
}

// JSONBinaryStateAdapter stores S as compact JSON bytes.
func JSONBinaryStateAdapter[S any](typeVersion int) StateAdapter[[]byte] {
	return StateAdapterFuncs[S, []byte]{
		Version: typeVersion,
		Encode:  func(state S) ([]byte, error) { return codec.Encode(codec.JSON{}, state) },
		Decode:  func(raw []byte) (S, error) { return codec.Decode[S](codec.JSON{}, raw) },
	}
}

// ObjectStateAdapter stores S unchanged.
func ObjectStateAdapter[S any](typeVersion int) StateAdapter[any] {
	return StateAdapterFuncs[S, any]{
		Version: typeVersion,
		Encode:  func(state S) (any, error) { return state, nil },
		Decode:  func(raw any) (S, error) { return sourceAs[S](raw) },
	}
}

// StateAdapterRegistry resolves the [StateAdapter] for a state type. It
// freezes on first lookup, like [AdapterRegistry].
type StateAdapterRegistry[RS any] struct {
	table adapterTable[StateAdapter[RS]]
}

func NewStateAdapterRegistry[RS any]() *StateAdapterRegistry[RS] {
	return &StateAdapterRegistry[RS]{}
}

func (r *StateAdapterRegistry[RS]) Register(adapters ...StateAdapter[RS]) error {
	for _, a := range adapters {
		if err := r.table.register(a.StateType(), a); err != nil {
			return err
		}
	}
	return nil
}

func (r *StateAdapterRegistry[RS]) MustRegister(adapters ...StateAdapter[RS]) *StateAdapterRegistry[RS] {
	if err := r.Register(adapters...); err != nil {
		panic(err)
	}
	return r
}

func (r *StateAdapterRegistry[RS]) SetDefault(a StateAdapter[RS]) error {
	return r.table.setDefault(a)
}

func (r *StateAdapterRegistry[RS]) Freeze() { r.table.close() }

func (r *StateAdapterRegistry[RS]) AdapterFor(stateType string) (StateAdapter[RS], error) {
	return r.table.lookup(stateType)
}

// ToRawState converts state with the adapter registered for its dynamic type.
func (r *StateAdapterRegistry[RS]) ToRawState(id string, state any, stateVersion int, md Metadata) (State[RS], error) {
	a, err := r.table.lookup(reflector.TypeNameOf(state))
	if err != nil {
		return State[RS]{}, err
	}
	return a.ToRawState(id, state, stateVersion, md)
}

// FromRawState reconstructs the state object using the adapter named by
// raw.Type.
func (r *StateAdapterRegistry[RS]) FromRawState(raw State[RS]) (any, error) {
	a, err := r.table.lookup(raw.Type)
	if err != nil {
		return nil, err
	}
	return a.FromRawState(raw)
}
