package store

import (
	"context"
	"fmt"

	"github.com/codewandler/symbio-go/core/symbio"
)

// InMemoryObjectStore is the reference [ObjectStore]. Objects are stored as
// raw states keyed by their persistence id.
type InMemoryObjectStore[RS, E any] struct {
	*memoryBase[RS, E]
}

func NewInMemoryObjectStore[RS, E any](opt Options[RS, E]) *InMemoryObjectStore[RS, E] {
	return &InMemoryObjectStore[RS, E]{memoryBase: newMemoryBase("object-store", opt)}
}

func (s *InMemoryObjectStore[RS, E]) Persist(ctx context.Context, obj StateObject, expectedVersion int, interest WriteResultInterest, opts ...Option) {
	o := applyOptions(opts)
	report := reportOnce(func(r WriteResult) {
		if interest != nil {
			interest.WriteResultedIn(r)
		}
	})
	if obj == nil {
		report(WriteResult{Sources: o.sources, Metadata: o.metadata, Object: o.object,
			Err: fmt.Errorf("%w: persist requires an object", symbio.ErrValidation)})
		return
	}
	id := obj.PersistenceID()
	if err := validateWrite(id, obj, expectedVersion); err != nil {
		report(WriteResult{ID: id, State: obj, Sources: o.sources, Metadata: o.metadata, Object: o.object, Err: err})
		return
	}
	s.submit(ctx, "persist", func(actx context.Context) {
		report(s.writeState(actx, id, obj, expectedVersion, o))
	}, func(err error) {
		report(WriteResult{ID: id, State: obj, Sources: o.sources, Metadata: o.metadata, Object: o.object, Err: err})
	})
}

// QueryObject reports the first match of q. No match is [ErrNotFound].
func (s *InMemoryObjectStore[RS, E]) QueryObject(ctx context.Context, q QueryExpression, interest QueryResultInterest, opts ...Option) {
	s.runQuery(ctx, q, interest, true, applyOptions(opts))
}

// QueryAll reports every match of q; no match is an empty success.
func (s *InMemoryObjectStore[RS, E]) QueryAll(ctx context.Context, q QueryExpression, interest QueryResultInterest, opts ...Option) {
	s.runQuery(ctx, q, interest, false, applyOptions(opts))
}

func (s *InMemoryObjectStore[RS, E]) runQuery(ctx context.Context, q QueryExpression, interest QueryResultInterest, single bool, o callOptions) {
	report := reportOnce(func(r QueryResult) {
		if interest != nil {
			interest.QueryResultedIn(r)
		}
	})
	s.submit(ctx, "query", func(context.Context) {
		res := s.query(q, o)
		if single && res.Err == nil {
			if len(res.Items) == 0 {
				res.Err = fmt.Errorf("%w: %s", ErrNotFound, q)
			} else {
				res.Items = res.Items[:1]
			}
		}
		report(res)
	}, func(err error) {
		report(QueryResult{Expression: q, Object: o.object, Err: err})
	})
}

func (s *InMemoryObjectStore[RS, E]) EntryReader(ctx context.Context, name string) (EntryReader[E], error) {
	return s.entryReader(ctx, name)
}

var _ ObjectStore[string, string] = (*InMemoryObjectStore[string, string])(nil)
