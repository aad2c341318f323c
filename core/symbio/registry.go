package symbio

import (
	"fmt"
	"sync"
)

// adapterTable maps type names to adapters. It accepts registrations until
// the first lookup, after which it is frozen and read without locking.
type adapterTable[A any] struct {
	mu       sync.Mutex
	freeze   sync.Once
	frozen   bool
	adapters map[string]A
	fallback *A
}

func (t *adapterTable[A]) register(key string, a A) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, key)
	}
	if t.adapters == nil {
		t.adapters = make(map[string]A)
	}
	if _, ok := t.adapters[key]; ok {
		return fmt.Errorf("%w: %s", ErrAdapterAlreadyRegistered, key)
	}
	t.adapters[key] = a
	return nil
}

func (t *adapterTable[A]) setDefault(a A) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return fmt.Errorf("%w: cannot set default adapter", ErrRegistryFrozen)
	}
	t.fallback = &a
	return nil
}

func (t *adapterTable[A]) close() {
	t.freeze.Do(func() {
		t.mu.Lock()
		t.frozen = true
		t.mu.Unlock()
	})
}

func (t *adapterTable[A]) lookup(key string) (A, error) {
	t.close()
	if a, ok := t.adapters[key]; ok {
		return a, nil
	}
	if t.fallback != nil {
		return *t.fallback, nil
	}
	var zero A
	return zero, fmt.Errorf("%w: %q", ErrAdapterNotRegistered, key)
}

func (t *adapterTable[A]) len() int {
	t.close()
	return len(t.adapters)
}
