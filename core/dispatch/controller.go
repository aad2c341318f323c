package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/perkey"
)

const (
	DefaultConfirmationExpiration = time.Second
	DefaultCheckInterval          = time.Second
)

type Options[RS, E any] struct {
	// Name identifies the controller in logs and metrics.
	Name     string
	Consumer Consumer[RS, E]
	// Tracker holds the pending set, default [InMemoryTracker].
	Tracker Tracker[RS, E]
	// ConfirmationExpiration is how long a delivery may stay unconfirmed
	// before it is attempted again.
	ConfirmationExpiration time.Duration
	// CheckInterval is how often expired deliveries are looked for. A
	// negative value disables the background check.
	CheckInterval time.Duration
	// AutoConfirm confirms every dispatchable the consumer accepted without
	// error.
	AutoConfirm bool
	Context     context.Context
	Logger      *slog.Logger
	Metrics     DispatchMetrics
	// Clock is used for attempt timestamps, default time.Now.
	Clock func() time.Time
}

// Controller is the at-least-once [Dispatcher]. Tracker access is serialized
// on its own actor; deliveries run on per-key workers so that dispatchables
// of one state id reach the consumer in commit order, off the store's write
// path.
type Controller[RS, E any] struct {
	name        string
	consumer    Consumer[RS, E]
	tracker     Tracker[RS, E]
	expiration  time.Duration
	interval    time.Duration
	autoConfirm bool
	log         *slog.Logger
	metrics     DispatchMetrics
	now         func() time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	actor   *actor.Actor
	workers *perkey.Scheduler[string]

	stopOnce sync.Once
	checkWG  sync.WaitGroup
}

func NewController[RS, E any](opt Options[RS, E]) (*Controller[RS, E], error) {
	if opt.Consumer == nil {
		return nil, errors.New("dispatch: consumer is required")
	}
	if opt.Name == "" {
		opt.Name = fmt.Sprintf("dispatcher-%s", gonanoid.Must(6))
	}
	if opt.Tracker == nil {
		opt.Tracker = NewInMemoryTracker[RS, E]()
	}
	if opt.ConfirmationExpiration <= 0 {
		opt.ConfirmationExpiration = DefaultConfirmationExpiration
	}
	if opt.CheckInterval == 0 {
		opt.CheckInterval = DefaultCheckInterval
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopDispatchMetrics()
	}
	if opt.Clock == nil {
		opt.Clock = time.Now
	}

	log := opt.Logger.With(slog.String("dispatcher", opt.Name))
	ctx, cancel := context.WithCancel(opt.Context)
	c := &Controller[RS, E]{
		name:        opt.Name,
		consumer:    opt.Consumer,
		tracker:     opt.Tracker,
		expiration:  opt.ConfirmationExpiration,
		interval:    opt.CheckInterval,
		autoConfirm: opt.AutoConfirm,
		log:         log,
		metrics:     opt.Metrics,
		now:         opt.Clock,
		ctx:         ctx,
		cancel:      cancel,
		actor:       actor.New(actor.Options{Name: opt.Name, Context: ctx, Logger: log}),
		workers:     perkey.New[string](),
	}

	// pending from a previous run of a durable tracker
	if n, err := c.redeliver(ctx, true); err != nil {
		log.Warn("recover pending dispatchables failed", slog.Any("error", err))
	} else if n > 0 {
		log.Info("recovered pending dispatchables", slog.Int("count", n))
	}

	if c.interval > 0 {
		c.checkWG.Add(1)
		go c.checkLoop()
	}
	return c, nil
}

func (c *Controller[RS, E]) Name() string { return c.name }

// Dispatch records d as pending and schedules its first delivery. A tracker
// failure is returned but d is still delivered.
func (c *Controller[RS, E]) Dispatch(ctx context.Context, d Dispatchable[RS, E]) error {
	var trackErr error
	_, err := actor.Call(ctx, c.actor, func(actx context.Context) (struct{}, error) {
		trackErr = c.tracker.Add(actx, Pending[RS, E]{Dispatchable: d, Attempts: 1, LastAttempt: c.now()})
		c.reportPending(actx)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", d.ID, err)
	}
	c.metrics.Dispatched(c.name)
	if trackErr != nil {
		c.log.Error("track dispatchable failed", slog.String("dispatch_id", d.ID), slog.Any("error", trackErr))
	}
	if err := c.submit(ctx, d); err != nil {
		return fmt.Errorf("dispatch %s: %w", d.ID, err)
	}
	return trackErr
}

// ConfirmDispatched removes id from the pending set. interest may be nil.
func (c *Controller[RS, E]) ConfirmDispatched(ctx context.Context, id string, interest ConfirmDispatchedResultInterest) {
	err := c.actor.Send(ctx, func(actx context.Context) {
		confirmed, err := c.tracker.Confirm(actx, id)
		if confirmed {
			c.metrics.Confirmed(c.name)
			c.log.Debug("confirmed", slog.String("dispatch_id", id))
		}
		c.reportPending(actx)
		if interest != nil {
			interest.ConfirmDispatchedResultedIn(err, id)
		}
	})
	if err != nil && interest != nil {
		interest.ConfirmDispatchedResultedIn(err, id)
	}
}

// DispatchUnconfirmed redelivers every pending dispatchable now, regardless
// of its last attempt, and returns how many were scheduled.
func (c *Controller[RS, E]) DispatchUnconfirmed(ctx context.Context) (int, error) {
	return c.redeliver(ctx, true)
}

// Pending returns the number of unconfirmed dispatchables.
func (c *Controller[RS, E]) Pending(ctx context.Context) (int, error) {
	return actor.Call(ctx, c.actor, c.tracker.Len)
}

// Unconfirmed returns the pending records, oldest first.
func (c *Controller[RS, E]) Unconfirmed(ctx context.Context) ([]Pending[RS, E], error) {
	return actor.Call(ctx, c.actor, c.tracker.Unconfirmed)
}

// Stop ends redelivery and waits for the background check to exit. Pending
// dispatchables stay in the tracker.
func (c *Controller[RS, E]) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.checkWG.Wait()
		c.workers.Close()
		c.actor.Stop()
		c.log.Debug("stopped")
	})
}

func (c *Controller[RS, E]) checkLoop() {
	defer c.checkWG.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.redeliver(c.ctx, false); err != nil && c.ctx.Err() == nil {
				c.log.Warn("redelivery check failed", slog.Any("error", err))
			}
		}
	}
}

// redeliver marks the due pending dispatchables as attempted inside the
// actor, then schedules them outside of it.
func (c *Controller[RS, E]) redeliver(ctx context.Context, all bool) (int, error) {
	due, err := actor.Call(ctx, c.actor, func(actx context.Context) ([]Dispatchable[RS, E], error) {
		pending, err := c.tracker.Unconfirmed(actx)
		if err != nil {
			return nil, err
		}
		now := c.now()
		var due []Dispatchable[RS, E]
		for _, p := range pending {
			if !all && now.Sub(p.LastAttempt) < c.expiration {
				continue
			}
			p.Attempts++
			p.LastAttempt = now
			if err := c.tracker.Add(actx, p); err != nil {
				return due, err
			}
			due = append(due, p.Dispatchable)
		}
		return due, nil
	})
	for _, d := range due {
		c.metrics.Redelivered(c.name)
		c.log.Debug("redeliver", slog.String("dispatch_id", d.ID))
		if serr := c.submit(ctx, d); serr != nil {
			return len(due), serr
		}
	}
	return len(due), err
}

func (c *Controller[RS, E]) submit(ctx context.Context, d Dispatchable[RS, E]) error {
	return c.workers.Submit(ctx, d.Key(), func() { c.deliver(d) })
}

// deliver runs on the key's worker.
func (c *Controller[RS, E]) deliver(d Dispatchable[RS, E]) {
	log := c.log.With(slog.String("dispatch_id", d.ID))

	pending, err := actor.Call(c.ctx, c.actor, func(actx context.Context) (bool, error) {
		return c.tracker.Has(actx, d.ID)
	})
	if err != nil {
		if c.ctx.Err() == nil {
			log.Warn("pending lookup failed", slog.Any("error", err))
		}
		return
	}
	if !pending {
		log.Debug("skip confirmed")
		return
	}

	timer := c.metrics.DeliveryDuration(c.name)
	err = c.consumer.Consume(c.ctx, d, c)
	timer.ObserveDuration()
	if err != nil {
		c.metrics.DeliveryFailed(c.name)
		log.Warn("delivery failed", slog.Any("error", fmt.Errorf("%w: %w", ErrDispatchFailure, err)))
		return
	}
	log.Debug("delivered", slog.Int("entries", len(d.Entries)))

	if c.autoConfirm {
		c.ConfirmDispatched(c.ctx, d.ID, nil)
	}
}

func (c *Controller[RS, E]) reportPending(ctx context.Context) {
	if n, err := c.tracker.Len(ctx); err == nil {
		c.metrics.Pending(c.name, n)
	}
}

var (
	_ Dispatcher[string, string] = (*Controller[string, string])(nil)
	_ Control                    = (*Controller[string, string])(nil)
)
