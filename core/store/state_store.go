package store

import (
	"context"
	"fmt"

	"github.com/codewandler/symbio-go/core/symbio"
)

// InMemoryStateStore is the reference [StateStore]. Its state is lost on
// restart.
type InMemoryStateStore[RS, E any] struct {
	*memoryBase[RS, E]
}

func NewInMemoryStateStore[RS, E any](opt Options[RS, E]) *InMemoryStateStore[RS, E] {
	return &InMemoryStateStore[RS, E]{memoryBase: newMemoryBase("state-store", opt)}
}

func (s *InMemoryStateStore[RS, E]) Read(ctx context.Context, id string, interest ReadResultInterest, opts ...Option) {
	o := applyOptions(opts)
	report := reportOnce(func(r ReadResult) {
		if interest != nil {
			interest.ReadResultedIn(r)
		}
	})
	if id == "" {
		report(ReadResult{Object: o.object, Err: fmt.Errorf("%w: read requires an id", symbio.ErrValidation)})
		return
	}
	s.submit(ctx, "read", func(context.Context) {
		report(s.readState(id, o))
	}, func(err error) {
		report(ReadResult{ID: id, Object: o.object, Err: err})
	})
}

func (s *InMemoryStateStore[RS, E]) Write(ctx context.Context, id string, state any, expectedVersion int, interest WriteResultInterest, opts ...Option) {
	o := applyOptions(opts)
	report := reportOnce(func(r WriteResult) {
		if interest != nil {
			interest.WriteResultedIn(r)
		}
	})
	if err := validateWrite(id, state, expectedVersion); err != nil {
		report(WriteResult{ID: id, State: state, Sources: o.sources, Metadata: o.metadata, Object: o.object, Err: err})
		return
	}
	s.submit(ctx, "write", func(actx context.Context) {
		report(s.writeState(actx, id, state, expectedVersion, o))
	}, func(err error) {
		report(WriteResult{ID: id, State: state, Sources: o.sources, Metadata: o.metadata, Object: o.object, Err: err})
	})
}

func (s *InMemoryStateStore[RS, E]) EntryReader(ctx context.Context, name string) (EntryReader[E], error) {
	return s.entryReader(ctx, name)
}

func validateWrite(id string, state any, expectedVersion int) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: write requires an id", symbio.ErrValidation)
	case state == nil:
		return fmt.Errorf("%w: write of %s requires a state", symbio.ErrValidation, id)
	case expectedVersion < NoVersion:
		return fmt.Errorf("%w: negative expected version %d", symbio.ErrValidation, expectedVersion)
	}
	return nil
}

var _ StateStore[string, string] = (*InMemoryStateStore[string, string])(nil)
