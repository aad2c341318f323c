package kv

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemStore is a process-local Store. It honors TTLs lazily on read.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
	now  func() time.Time
}

type memEntry struct {
	entry   Entry
	expires time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string]memEntry{}, now: time.Now}
}

func (m *MemStore) Put(_ context.Context, key string, entry Entry, opts PutOptions) error {
	e := memEntry{entry: entry}
	if opts.TTL > 0 {
		e.expires = m.now().Add(opts.TTL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = e
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return Entry{}, ErrNotFound
	}
	return e.entry, nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	live := maps.Clone(m.data)
	maps.DeleteFunc(live, func(_ string, e memEntry) bool { return e.expired(now) })
	return slices.Sorted(maps.Keys(live)), nil
}

var _ Store = (*MemStore)(nil)
