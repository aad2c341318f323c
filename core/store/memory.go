package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/ds"
	"github.com/codewandler/symbio-go/core/symbio"
)

// Options configure the in-memory stores.
type Options[RS, E any] struct {
	// Name identifies the store in logs and metrics.
	Name          string
	StateAdapters *symbio.StateAdapterRegistry[RS]
	EntryAdapters *symbio.AdapterRegistry[E]
	Dispatchers   []dispatch.Dispatcher[RS, E]
	// Queries adds or replaces named queries next to "find" and "all".
	Queries map[string]QueryFunc[RS]
	// BeforeCommit runs right before a write becomes visible. An error aborts
	// the write with a [StorageError] and leaves nothing behind.
	BeforeCommit func(id string) error
	Context      context.Context
	Logger       *slog.Logger
	Metrics      StoreMetrics
	ActorMetrics actor.ActorMetrics
	// Clock stamps dispatchables, default time.Now.
	Clock func() time.Time
}

// memoryBase is the machinery shared by the in-memory stores. Fields below
// the actor are owned by the actor goroutine.
type memoryBase[RS, E any] struct {
	name          string
	log           *slog.Logger
	metrics       StoreMetrics
	now           func() time.Time
	stateAdapters *symbio.StateAdapterRegistry[RS]
	entryAdapters *symbio.AdapterRegistry[E]
	dispatchers   []dispatch.Dispatcher[RS, E]
	queries       map[string]QueryFunc[RS]
	beforeCommit  func(id string) error
	entries       *entryLog[E]

	actor   *actor.Actor
	pending pendingCalls

	states  map[string]symbio.State[RS]
	order   *ds.Set[string]
	readers map[string]*entryReader[E]
}

func newMemoryBase[RS, E any](kind string, opt Options[RS, E]) *memoryBase[RS, E] {
	if opt.Name == "" {
		opt.Name = fmt.Sprintf("%s-%s", kind, gonanoid.Must(6))
	}
	if opt.StateAdapters == nil {
		opt.StateAdapters = symbio.NewStateAdapterRegistry[RS]()
	}
	if opt.EntryAdapters == nil {
		opt.EntryAdapters = symbio.NewAdapterRegistry[E]()
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopStoreMetrics()
	}
	if opt.Clock == nil {
		opt.Clock = time.Now
	}

	queries := map[string]QueryFunc[RS]{
		QueryFind: findQuery[RS],
		QueryAll:  allQuery[RS],
	}
	for name, fn := range opt.Queries {
		queries[name] = fn
	}

	log := opt.Logger.With(slog.String("store", opt.Name))
	return &memoryBase[RS, E]{
		name:          opt.Name,
		log:           log,
		metrics:       opt.Metrics,
		now:           opt.Clock,
		stateAdapters: opt.StateAdapters,
		entryAdapters: opt.EntryAdapters,
		dispatchers:   opt.Dispatchers,
		queries:       queries,
		beforeCommit:  opt.BeforeCommit,
		entries:       newEntryLog[E](),
		actor: actor.New(actor.Options{
			Name:    opt.Name,
			Context: opt.Context,
			Logger:  log,
			Metrics: opt.ActorMetrics,
		}),
		pending: pendingCalls{fails: map[uint64]func(error){}},
		states:  map[string]symbio.State[RS]{},
		order:   ds.NewSet[string](),
		readers: map[string]*entryReader[E]{},
	}
}

func (b *memoryBase[RS, E]) Name() string { return b.name }

// Stop shuts the store's worker down. Calls still queued, and calls made
// afterwards, fail with a storage failure wrapping [actor.ErrStopped].
func (b *memoryBase[RS, E]) Stop() {
	b.actor.Stop()
	for _, fail := range b.pending.close() {
		fail(&StorageError{Op: "stop", Err: actor.ErrStopped})
	}
}

// submit runs task on the store's worker. fail receives the error when the
// task cannot be enqueued, is dropped by Stop, or panics before it reported.
// Callers wrap their interest with [reportOnce] so that it hears back once.
func (b *memoryBase[RS, E]) submit(ctx context.Context, op string, task actor.Task, fail func(error)) {
	id, ok := b.pending.add(fail)
	if !ok {
		fail(&StorageError{Op: op, Err: actor.ErrStopped})
		return
	}
	err := b.actor.Send(ctx, func(actx context.Context) {
		if !b.pending.claim(id) {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				b.log.Error("store task panicked",
					slog.String("op", op),
					slog.Any("recovered", r),
					slog.String("stack", string(debug.Stack())),
				)
				fail(fmt.Errorf("store %s: %s panicked: %v", b.name, op, r))
			}
		}()
		task(actx)
	})
	if err != nil && b.pending.claim(id) {
		fail(&StorageError{Op: op, Err: err})
	}
}

// pendingCalls holds the fail callbacks of submitted tasks that have not
// started. Whoever claims an id first owns its outcome.
type pendingCalls struct {
	mu     sync.Mutex
	next   uint64
	closed bool
	fails  map[uint64]func(error)
}

func (p *pendingCalls) add(fail func(error)) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, false
	}
	p.next++
	p.fails[p.next] = fail
	return p.next, true
}

func (p *pendingCalls) claim(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.fails[id]
	delete(p.fails, id)
	return ok
}

// close returns the unclaimed callbacks in submission order and refuses
// further adds.
func (p *pendingCalls) close() []func(error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	ids := make([]uint64, 0, len(p.fails))
	for id := range p.fails {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(error), 0, len(ids))
	for _, id := range ids {
		out = append(out, p.fails[id])
	}
	clear(p.fails)
	return out
}

// reportOnce delivers the first result to deliver and drops the rest. A
// panicking interest is therefore never called a second time.
func reportOnce[R any](deliver func(R)) func(R) {
	var done atomic.Bool
	return func(r R) {
		if done.CompareAndSwap(false, true) {
			deliver(r)
		}
	}
}

func (b *memoryBase[RS, E]) toEntries(sources []any, md symbio.Metadata) ([]symbio.Entry[E], error) {
	if len(sources) == 0 {
		return symbio.NoEntries[E](), nil
	}
	return b.entryAdapters.ToEntries(sources, md)
}

// commit makes a write visible: the entries get their ids and are appended,
// and the state, if any, replaces the stored one under key.
func (b *memoryBase[RS, E]) commit(op, key string, state *symbio.State[RS], entries []symbio.Entry[E]) ([]symbio.Entry[E], error) {
	if b.beforeCommit != nil {
		if err := b.beforeCommit(key); err != nil {
			b.metrics.StorageFailure(b.name)
			return nil, &StorageError{Op: op, ID: key, Err: err}
		}
	}
	committed := b.entries.assign(entries)
	b.entries.append(committed)
	if state != nil {
		b.states[key] = *state
		b.order.Add(key)
	}
	if len(committed) > 0 {
		b.metrics.EntriesAppended(b.name, len(committed))
	}
	return committed, nil
}

// dispatch hands one committed write to every dispatcher. The write is
// already durable: errors and panics are logged and counted only. stream is
// the journal stream name, empty for state writes.
func (b *memoryBase[RS, E]) dispatch(ctx context.Context, stream string, state *symbio.State[RS], entries []symbio.Entry[E]) {
	if len(b.dispatchers) == 0 {
		return
	}
	d := dispatch.NewDispatchable(gonanoid.Must(), b.now(), state, entries)
	d.Stream = stream
	for _, dp := range b.dispatchers {
		if err := b.dispatchTo(ctx, dp, d); err != nil {
			b.metrics.DispatchFailure(b.name)
			b.log.Warn("dispatch failed", slog.String("dispatch_id", d.ID), slog.Any("error", err))
		}
	}
}

func (b *memoryBase[RS, E]) dispatchTo(ctx context.Context, dp dispatch.Dispatcher[RS, E], d dispatch.Dispatchable[RS, E]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("dispatcher panicked",
				slog.String("dispatch_id", d.ID),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: dispatcher panicked: %v", dispatch.ErrDispatchFailure, r)
		}
	}()
	return dp.Dispatch(ctx, d)
}

// writeState is the canonical state write used by state and object stores.
func (b *memoryBase[RS, E]) writeState(ctx context.Context, id string, state any, expectedVersion int, o callOptions) WriteResult {
	defer b.metrics.WriteDuration(b.name).ObserveDuration()

	res := WriteResult{ID: id, State: state, Sources: o.sources, Metadata: o.metadata, Object: o.object}
	log := b.log.With(slog.Group("state", slog.String("id", id), slog.Int("expected_version", expectedVersion)))

	current := NoVersion
	if s, ok := b.states[id]; ok {
		current = s.DataVersion
	}
	if expectedVersion != current {
		b.metrics.ConcurrencyConflict(b.name)
		res.Err = fmt.Errorf("%w: %s is at version %d, expected %d", ErrConcurrencyConflict, id, current, expectedVersion)
		log.Debug("write rejected", slog.Int("current_version", current))
		return res
	}

	raw, err := b.stateAdapters.ToRawState(id, state, current+1, o.metadata)
	if err != nil {
		res.Err = err
		return res
	}
	entries, err := b.toEntries(o.sources, o.metadata)
	if err != nil {
		res.Err = err
		return res
	}
	committed, err := b.commit("write", id, &raw, entries)
	if err != nil {
		res.Err = err
		log.Warn("write failed", slog.Any("error", err))
		return res
	}

	res.StateVersion = raw.DataVersion
	log.Debug("write", slog.Int("version", raw.DataVersion), slog.Int("entries", len(committed)))
	b.dispatch(ctx, "", &raw, committed)
	return res
}

func (b *memoryBase[RS, E]) readState(id string, o callOptions) ReadResult {
	defer b.metrics.ReadDuration(b.name).ObserveDuration()

	res := ReadResult{ID: id, Object: o.object}
	raw, ok := b.states[id]
	if !ok {
		res.Err = fmt.Errorf("%w: %s", ErrNotFound, id)
		return res
	}
	state, err := b.stateAdapters.FromRawState(raw)
	if err != nil {
		res.Err = err
		return res
	}
	res.State = state
	res.StateVersion = raw.DataVersion
	res.Metadata = raw.Metadata
	return res
}

func (b *memoryBase[RS, E]) query(q QueryExpression, o callOptions) QueryResult {
	defer b.metrics.QueryDuration(b.name, q.Name()).ObserveDuration()

	res := QueryResult{Expression: q, Object: o.object}
	fn, ok := b.queries[q.Name()]
	if !ok {
		res.Err = fmt.Errorf("%w: %q", ErrUnsupportedQuery, q.Name())
		return res
	}

	states := make([]symbio.State[RS], 0, b.order.Len())
	b.order.ForEach(func(id string) { states = append(states, b.states[id]) })

	matched, err := fn(q, states)
	if err != nil {
		res.Err = err
		return res
	}
	for _, raw := range matched {
		state, err := b.stateAdapters.FromRawState(raw)
		if err != nil {
			res.Err = err
			res.Items = nil
			return res
		}
		res.Items = append(res.Items, QueryItem{
			ID:           raw.ID,
			State:        state,
			StateVersion: raw.DataVersion,
			Metadata:     raw.Metadata,
		})
	}
	return res
}

// entryReader returns the reader registered under name, creating it at
// position 0 on first use.
func (b *memoryBase[RS, E]) entryReader(ctx context.Context, name string) (EntryReader[E], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: entry reader name must not be empty", symbio.ErrValidation)
	}
	return actor.Call(ctx, b.actor, func(context.Context) (EntryReader[E], error) {
		r, ok := b.readers[name]
		if !ok {
			r = &entryReader[E]{name: name, log: b.entries}
			b.readers[name] = r
		}
		return r, nil
	})
}
