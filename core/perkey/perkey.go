// Package perkey provides a scheduler that serializes work per key
// while allowing work for different keys to execute concurrently.
//
// The dispatcher uses it to deliver dispatchables of the same key in
// commit order while unrelated ids proceed in parallel.
package perkey

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSchedulerClosed is returned when work is submitted to a closed scheduler.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	bufferSize  int
	idleTimeout time.Duration
}

// WithBufferSize sets the task buffer size per worker (default: 64).
func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// WithIdleTimeout sets how long a key's worker lingers without work before
// it exits (default: 30s). A later task for the key starts a new worker.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idleTimeout = d
		}
	}
}

// Scheduler runs tasks such that for any given key K, tasks are executed
// sequentially, in submission order. Tasks for different keys can proceed in
// parallel.
type Scheduler[K comparable] struct {
	mu      sync.Mutex
	workers map[K]*worker
	closed  bool
	wg      sync.WaitGroup // tracks in-flight enqueues
	cfg     config
}

type worker struct {
	tasks   chan func()
	pending atomic.Int32 // enqueues between worker lookup and channel send
}

func New[K comparable](opts ...Option) *Scheduler[K] {
	cfg := config{bufferSize: 64, idleTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler[K]{
		workers: make(map[K]*worker),
		cfg:     cfg,
	}
}

// Do schedules fn to run for the given key.
// It blocks until fn finishes and returns its error.
func (s *Scheduler[K]) Do(key K, fn func() error) error {
	return s.DoContext(context.Background(), key, fn)
}

// DoContext is like Do but respects context cancellation. If ctx ends after
// the task was enqueued, the task still runs but the caller does not wait.
func (s *Scheduler[K]) DoContext(ctx context.Context, key K, fn func() error) error {
	done := make(chan error, 1)
	if err := s.Submit(ctx, key, func() { done <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues fn for key and returns without waiting for it to run. It
// blocks only while the key's buffer is full.
func (s *Scheduler[K]) Submit(ctx context.Context, key K, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.wg.Add(1)
	defer s.wg.Done()
	w := s.workerLocked(key)
	w.pending.Add(1)
	s.mu.Unlock()
	defer w.pending.Add(-1)

	select {
	case w.tasks <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len reports the number of live key workers.
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Close stops accepting new tasks and shuts down all workers.
// It waits for in-flight enqueues before closing worker channels.
// Tasks already queued are still processed.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	for _, w := range s.workers {
		close(w.tasks)
	}
	s.workers = nil
	s.mu.Unlock()
}

func (s *Scheduler[K]) workerLocked(key K) *worker {
	if w, ok := s.workers[key]; ok {
		return w
	}
	w := &worker{tasks: make(chan func(), s.cfg.bufferSize)}
	s.workers[key] = w
	go s.run(key, w)
	return w
}

// run processes tasks sequentially for a single key.
func (s *Scheduler[K]) run(key K, w *worker) {
	idle := time.NewTimer(s.cfg.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case fn, ok := <-w.tasks:
			if !ok {
				return
			}
			fn()
			idle.Reset(s.cfg.idleTimeout)
		case <-idle.C:
			s.mu.Lock()
			if !s.closed && len(w.tasks) == 0 && w.pending.Load() == 0 {
				delete(s.workers, key)
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			idle.Reset(s.cfg.idleTimeout)
		}
	}
}
