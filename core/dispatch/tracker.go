package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/codewandler/symbio-go/core/ds"
	"github.com/codewandler/symbio-go/ports/kv"
)

// Pending is a dispatchable awaiting confirmation.
type Pending[RS, E any] struct {
	Dispatchable Dispatchable[RS, E] `json:"dispatchable"`
	Attempts     int                 `json:"attempts"`
	LastAttempt  time.Time           `json:"lastAttempt"`
}

// Tracker holds the set of unconfirmed dispatchables.
type Tracker[RS, E any] interface {
	// Add inserts or replaces the pending record for p.Dispatchable.ID.
	Add(ctx context.Context, p Pending[RS, E]) error
	// Confirm removes id and reports whether it was pending.
	Confirm(ctx context.Context, id string) (bool, error)
	Has(ctx context.Context, id string) (bool, error)
	// Unconfirmed returns all pending records, oldest first.
	Unconfirmed(ctx context.Context) ([]Pending[RS, E], error)
	Len(ctx context.Context) (int, error)
}

// InMemoryTracker keeps the pending set in process memory. It is NOT
// durable: pending dispatchables are lost on restart. Use [KVTracker] on a
// durable [kv.Store] in production.
type InMemoryTracker[RS, E any] struct {
	mu      sync.RWMutex
	order   *ds.Set[string]
	pending map[string]Pending[RS, E]
}

func NewInMemoryTracker[RS, E any]() *InMemoryTracker[RS, E] {
	return &InMemoryTracker[RS, E]{
		order:   ds.NewSet[string](),
		pending: map[string]Pending[RS, E]{},
	}
}

func (t *InMemoryTracker[RS, E]) Add(_ context.Context, p Pending[RS, E]) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order.Add(p.Dispatchable.ID)
	t.pending[p.Dispatchable.ID] = p
	return nil
}

func (t *InMemoryTracker[RS, E]) Confirm(_ context.Context, id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[id]; !ok {
		return false, nil
	}
	delete(t.pending, id)
	t.order.Remove(id)
	return true, nil
}

func (t *InMemoryTracker[RS, E]) Has(_ context.Context, id string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pending[id]
	return ok, nil
}

func (t *InMemoryTracker[RS, E]) Unconfirmed(_ context.Context) ([]Pending[RS, E], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Pending[RS, E], 0, t.order.Len())
	t.order.ForEach(func(id string) {
		out = append(out, t.pending[id])
	})
	return out, nil
}

func (t *InMemoryTracker[RS, E]) Len(_ context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pending), nil
}

type KVTrackerOptions struct {
	// Prefix namespaces the tracker's keys (default "dispatch.").
	Prefix string
	// TTL bounds how long an unconfirmed dispatchable is kept. Zero keeps it
	// until confirmed.
	TTL time.Duration
}

// KVTracker persists the pending set in a [kv.Store], one JSON document per
// dispatchable. It is as durable as the backing store.
type KVTracker[RS, E any] struct {
	store  kv.Store
	prefix string
	ttl    time.Duration
}

func NewKVTracker[RS, E any](store kv.Store, opts KVTrackerOptions) *KVTracker[RS, E] {
	if opts.Prefix == "" {
		opts.Prefix = "dispatch."
	}
	return &KVTracker[RS, E]{store: store, prefix: opts.Prefix, ttl: opts.TTL}
}

func (t *KVTracker[RS, E]) key(id string) string { return t.prefix + id }

func (t *KVTracker[RS, E]) Add(ctx context.Context, p Pending[RS, E]) error {
	if err := kv.Put(ctx, t.store, t.key(p.Dispatchable.ID), p, kv.PutOptions{TTL: t.ttl}); err != nil {
		return fmt.Errorf("track dispatchable %s: %w", p.Dispatchable.ID, err)
	}
	return nil
}

func (t *KVTracker[RS, E]) Confirm(ctx context.Context, id string) (bool, error) {
	ok, err := t.Has(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if err := t.store.Delete(ctx, t.key(id)); err != nil {
		return false, fmt.Errorf("confirm dispatchable %s: %w", id, err)
	}
	return true, nil
}

func (t *KVTracker[RS, E]) Has(ctx context.Context, id string) (bool, error) {
	_, err := t.store.Get(ctx, t.key(id))
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("lookup dispatchable %s: %w", id, err)
	}
	return true, nil
}

func (t *KVTracker[RS, E]) Unconfirmed(ctx context.Context) ([]Pending[RS, E], error) {
	keys, err := t.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending dispatchables: %w", err)
	}
	out := make([]Pending[RS, E], 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, t.prefix) {
			continue
		}
		p, err := kv.Get[Pending[RS, E]](ctx, t.store, k)
		if errors.Is(err, kv.ErrNotFound) {
			// confirmed or expired since listing
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load pending dispatchable %s: %w", k, err)
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Pending[RS, E]) int {
		if c := a.Dispatchable.CreatedAt.Compare(b.Dispatchable.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Dispatchable.ID, b.Dispatchable.ID)
	})
	return out, nil
}

func (t *KVTracker[RS, E]) Len(ctx context.Context) (int, error) {
	keys, err := t.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending dispatchables: %w", err)
	}
	n := 0
	for _, k := range keys {
		if strings.HasPrefix(k, t.prefix) {
			n++
		}
	}
	return n, nil
}

var (
	_ Tracker[string, string] = (*InMemoryTracker[string, string])(nil)
	_ Tracker[string, string] = (*KVTracker[string, string])(nil)
)
