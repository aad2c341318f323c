package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

var ErrStopped = errors.New("actor stopped")

type (
	// Task is one unit of work executed inside the actor goroutine. ctx is
	// the actor's lifetime context.
	Task func(ctx context.Context)

	OnPanic func(recovered any, stack []byte)
)

// ---- control messages (internal) ----

type ctrlKind int

const (
	ctrlPause ctrlKind = iota
	ctrlResume
	ctrlEnableStep
	ctrlStep
	ctrlStop
)

type Options struct {
	// Name identifies the actor in logs and metrics.
	Name        string
	MailboxSize int
	ControlSize int
	Context     context.Context
	Logger      *slog.Logger
	OnPanic     OnPanic
	Metrics     ActorMetrics
}

// Actor executes tasks one at a time, in the order they were sent. All state
// touched only from tasks needs no further synchronization.
type Actor struct {
	name    string
	ctx     context.Context
	cancel  context.CancelFunc
	log     *slog.Logger
	metrics ActorMetrics

	mailbox chan Task
	control chan ctrlKind

	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool

	onPanic OnPanic
}

func New(opt Options) *Actor {
	if opt.Name == "" {
		opt.Name = "actor"
	}
	if opt.MailboxSize == 0 {
		opt.MailboxSize = 1024
	}
	if opt.ControlSize == 0 {
		opt.ControlSize = 16
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopActorMetrics()
	}
	log := opt.Logger.With(slog.String("actor", opt.Name))
	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte) {
			log.Error("actor task panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)))
		}
	}

	ctx, cancel := context.WithCancel(opt.Context)
	a := &Actor{
		name:    opt.Name,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		metrics: opt.Metrics,
		mailbox: make(chan Task, opt.MailboxSize),
		control: make(chan ctrlKind, opt.ControlSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		onPanic: opt.OnPanic,
	}

	go a.loop()
	return a
}

func (a *Actor) Name() string { return a.name }

// Done is closed when the actor stops.
func (a *Actor) Done() <-chan struct{} { return a.done }

// Stop requests shutdown and waits for completion. Queued tasks that have
// not started are dropped.
func (a *Actor) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	a.mu.Unlock()

	select {
	case a.control <- ctrlStop:
	default:
	}
	close(a.stop)
	a.cancel()
	<-a.done
}

// Send enqueues a task, blocking until enqueued, ctx canceled, or actor
// stopped.
func (a *Actor) Send(ctx context.Context, t Task) error {
	if a.isClosed() {
		return ErrStopped
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("send failed: %w", ctx.Err())
	case <-a.stop:
		return ErrStopped
	case <-a.done:
		return ErrStopped
	case a.mailbox <- t:
		a.metrics.MailboxDepth(a.name, len(a.mailbox))
		return nil
	}
}

// TrySend attempts a non-blocking enqueue.
func (a *Actor) TrySend(t Task) bool {
	if a.isClosed() {
		return false
	}
	select {
	case <-a.stop:
		return false
	case a.mailbox <- t:
		a.metrics.MailboxDepth(a.name, len(a.mailbox))
		return true
	default:
		return false
	}
}

// Pause prevents further processing until Resume or Step.
func (a *Actor) Pause() error { return a.sendCtrl(ctrlPause) }

// Resume enables continuous processing (disables step mode).
func (a *Actor) Resume() error { return a.sendCtrl(ctrlResume) }

// EnableStepMode makes the actor process only when Step() is called.
func (a *Actor) EnableStepMode() error { return a.sendCtrl(ctrlEnableStep) }

// Step permits exactly one task to be processed.
func (a *Actor) Step() error { return a.sendCtrl(ctrlStep) }

// Call runs fn inside the actor and waits for its result.
func Call[R any](ctx context.Context, a *Actor, fn func(ctx context.Context) (R, error)) (R, error) {
	c := NewCompletes[R]()
	err := a.Send(ctx, func(actx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.Fail(fmt.Errorf("%w: %v", ErrPanicked, r))
				panic(r)
			}
		}()
		v, err := fn(actx)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Complete(v)
	})
	if err != nil {
		var zero R
		return zero, err
	}
	select {
	case <-a.done:
		// the task may still have completed right before shutdown
		select {
		case <-c.Done():
		default:
			var zero R
			return zero, ErrStopped
		}
	case <-c.Done():
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
	return c.Await(ctx)
}

// ---- internals ----

func (a *Actor) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *Actor) sendCtrl(k ctrlKind) error {
	if a.isClosed() {
		return ErrStopped
	}
	select {
	case <-a.stop:
		return ErrStopped
	case a.control <- k:
		return nil
	}
}

func (a *Actor) run(t Task) {
	timer := a.metrics.TaskDuration(a.name)
	defer func() {
		timer.ObserveDuration()
		if r := recover(); r != nil {
			a.metrics.TaskPanic(a.name)
			a.onPanic(r, debug.Stack())
			// containment: keep running
		}
	}()
	t(a.ctx)
}

// execution state lives only in the loop goroutine
type loopState struct {
	paused   bool
	stepMode bool
	// when >0 the actor may process one task; in run mode it auto-renews
	permit int
}

// apply returns false on stop.
func (s *loopState) apply(k ctrlKind) bool {
	switch k {
	case ctrlStop:
		return false
	case ctrlPause:
		s.paused = true
		s.permit = 0
	case ctrlResume:
		s.paused = false
		s.stepMode = false
		if s.permit == 0 {
			s.permit = 1
		}
	case ctrlEnableStep:
		s.stepMode = true
		s.paused = true
		s.permit = 0
	case ctrlStep:
		s.permit++
	}
	return true
}

func (a *Actor) loop() {
	defer close(a.done)
	st := &loopState{permit: 1}

	// control has priority
	drainControl := func() bool {
		for {
			select {
			case <-a.stop:
				return false
			case k := <-a.control:
				if !st.apply(k) {
					return false
				}
			default:
				return true
			}
		}
	}

	for {
		if !drainControl() {
			return
		}

		if st.permit <= 0 {
			select {
			case <-a.stop:
				return
			case <-a.ctx.Done():
				return
			case k := <-a.control:
				if !st.apply(k) {
					return
				}
			}
			continue
		}

		select {
		case <-a.stop:
			return
		case <-a.ctx.Done():
			return
		case k := <-a.control:
			if !st.apply(k) {
				return
			}
		case t := <-a.mailbox:
			st.permit--
			a.run(t)
			if !st.paused && !st.stepMode {
				st.permit++
			}
		}
	}
}
