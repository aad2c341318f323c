package store

import (
	"fmt"
	"maps"

	"github.com/codewandler/symbio-go/core/symbio"
)

// Built-in query names understood by every in-memory store.
const (
	QueryFind = "find"
	QueryAll  = "all"
)

// QueryExpression is a named query with parameters. It is immutable once
// constructed.
type QueryExpression struct {
	name   string
	params map[string]any
}

func NewQueryExpression(name string, params map[string]any) QueryExpression {
	return QueryExpression{name: name, params: maps.Clone(params)}
}

// FindByID is the identity lookup query.
func FindByID(id string) QueryExpression {
	return QueryExpression{name: QueryFind, params: map[string]any{"id": id}}
}

// All selects every state.
func All() QueryExpression { return QueryExpression{name: QueryAll} }

func (q QueryExpression) Name() string { return q.name }

func (q QueryExpression) Param(name string) (any, bool) {
	v, ok := q.params[name]
	return v, ok
}

func (q QueryExpression) Params() map[string]any { return maps.Clone(q.params) }

func (q QueryExpression) String() string {
	return fmt.Sprintf("%s%v", q.name, q.params)
}

// QueryFunc evaluates a query against the stored states, given in identity
// creation order, and returns the matching ones.
type QueryFunc[RS any] func(q QueryExpression, states []symbio.State[RS]) ([]symbio.State[RS], error)

func findQuery[RS any](q QueryExpression, states []symbio.State[RS]) ([]symbio.State[RS], error) {
	v, ok := q.Param("id")
	if !ok {
		return nil, fmt.Errorf("%w: query %q requires parameter id", symbio.ErrValidation, q.name)
	}
	id := fmt.Sprint(v)
	for _, s := range states {
		if s.ID == id {
			return []symbio.State[RS]{s}, nil
		}
	}
	return nil, nil
}

func allQuery[RS any](_ QueryExpression, states []symbio.State[RS]) ([]symbio.State[RS], error) {
	return states, nil
}
