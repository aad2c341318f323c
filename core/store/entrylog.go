package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/codewandler/symbio-go/core/symbio"
)

// entryLog is the append-only entry sequence of one store. Only the store's
// worker appends; readers take the read lock.
type entryLog[E any] struct {
	mu      sync.RWMutex
	entries []symbio.Entry[E]
	index   map[string]int
}

func newEntryLog[E any]() *entryLog[E] {
	return &entryLog[E]{index: map[string]int{}}
}

// assign returns the entries with the ids they will get when appended next.
func (l *entryLog[E]) assign(entries []symbio.Entry[E]) []symbio.Entry[E] {
	if len(entries) == 0 {
		return symbio.NoEntries[E]()
	}
	l.mu.RLock()
	next := len(l.entries) + 1
	l.mu.RUnlock()

	out := make([]symbio.Entry[E], len(entries))
	for i, e := range entries {
		out[i] = e.WithID(strconv.Itoa(next + i))
	}
	return out
}

func (l *entryLog[E]) append(entries []symbio.Entry[E]) {
	if len(entries) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		l.index[e.ID()] = len(l.entries)
		l.entries = append(l.entries, e)
	}
}

func (l *entryLog[E]) at(i int) (symbio.Entry[E], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.entries) {
		return symbio.Entry[E]{}, false
	}
	return l.entries[i], true
}

func (l *entryLog[E]) slice(from, max int) []symbio.Entry[E] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if from >= len(l.entries) || max <= 0 {
		return symbio.NoEntries[E]()
	}
	to := min(from+max, len(l.entries))
	out := make([]symbio.Entry[E], to-from)
	copy(out, l.entries[from:to])
	return out
}

func (l *entryLog[E]) indexOf(id string) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	return i, ok
}

func (l *entryLog[E]) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// entryReader is an independently positioned cursor over an entryLog.
type entryReader[E any] struct {
	name string
	log  *entryLog[E]

	mu  sync.Mutex
	pos int
}

func (r *entryReader[E]) Name() string { return r.name }

func (r *entryReader[E]) ReadNext(ctx context.Context) (symbio.Entry[E], error) {
	if err := ctx.Err(); err != nil {
		return symbio.Entry[E]{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.log.at(r.pos)
	if !ok {
		return symbio.Entry[E]{}, ErrEndOfEntries
	}
	r.pos++
	return e, nil
}

func (r *entryReader[E]) ReadNextN(ctx context.Context, max int) ([]symbio.Entry[E], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.log.slice(r.pos, max)
	r.pos += len(entries)
	return entries, nil
}

func (r *entryReader[E]) ReadAt(ctx context.Context, index int) (symbio.Entry[E], error) {
	if err := ctx.Err(); err != nil {
		return symbio.Entry[E]{}, err
	}
	e, ok := r.log.at(index)
	if !ok {
		return symbio.Entry[E]{}, fmt.Errorf("%w: entry index %d", ErrEndOfEntries, index)
	}
	return e, nil
}

func (r *entryReader[E]) Seek(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i, ok := r.log.indexOf(id)
	if !ok {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	r.mu.Lock()
	r.pos = i
	r.mu.Unlock()
	return nil
}

func (r *entryReader[E]) Rewind() {
	r.mu.Lock()
	r.pos = 0
	r.mu.Unlock()
}

func (r *entryReader[E]) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *entryReader[E]) Size(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.log.len(), nil
}

var _ EntryReader[string] = (*entryReader[string])(nil)
