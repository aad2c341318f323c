// Command symbio-demo drives the write, dispatch and confirm cycle: it
// deposits into a set of accounts kept in an in-memory state store, and
// every write is delivered at least once through a dispatch controller.
//
// With SYMBIO_NATS_URL set, dispatchables are published to JetStream and the
// pending set lives in a JetStream KV bucket, so unconfirmed deliveries
// survive a restart. Otherwise they are logged and confirmed in-process.
//
// Prometheus metrics are served at SYMBIO_METRICS_ADDR (default :2121).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/symbio-go/adapters/nats"
	promadapter "github.com/codewandler/symbio-go/adapters/prometheus"
	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/core/store"
	"github.com/codewandler/symbio-go/core/symbio"
)

type (
	Account struct {
		ID      string `json:"id"`
		Balance int    `json:"balance"`
	}

	Deposited struct {
		Account string `json:"account"`
		Amount  int    `json:"amount"`
	}
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := LoadConfig(nil)
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(ctx, log, cfg, prometheus.NewRegistry()); err != nil {
		log.Error("demo failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg Config, reg *prometheus.Registry) error {
	metrics := promadapter.NewAllMetrics(reg)

	consumer, tracker, cleanup, err := newDelivery(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctrl, err := dispatch.NewController(dispatch.Options[string, string]{
		Name:                   "demo",
		Consumer:               consumer,
		Tracker:                tracker,
		ConfirmationExpiration: cfg.ConfirmationExpiration,
		CheckInterval:          cfg.CheckInterval,
		Context:                ctx,
		Logger:                 log,
		Metrics:                metrics.Dispatch,
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	accounts := store.NewInMemoryStateStore(store.Options[string, string]{
		Name: "accounts",
		StateAdapters: symbio.NewStateAdapterRegistry[string]().
			MustRegister(symbio.JSONTextStateAdapter[Account](1)),
		EntryAdapters: symbio.NewAdapterRegistry[string]().
			MustRegister(symbio.JSONTextEntryAdapter[Deposited](1)),
		Dispatchers:  []dispatch.Dispatcher[string, string]{ctrl},
		Context:      ctx,
		Logger:       log,
		Metrics:      metrics.Store,
		ActorMetrics: metrics.Actor,
	})
	defer accounts.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		log.Info("metrics server starting", slog.String("addr", cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer close(done)
		if err := deposit(gctx, log, cfg, accounts); err != nil {
			return err
		}
		return drain(gctx, log, ctrl)
	})

	return g.Wait()
}

// newDelivery picks the downstream of the controller.
func newDelivery(ctx context.Context, log *slog.Logger, cfg Config) (dispatch.Consumer[string, string], dispatch.Tracker[string, string], func(), error) {
	if cfg.NatsURL == "" {
		consumer := dispatch.ConsumerFunc[string, string](func(ctx context.Context, d dispatch.Dispatchable[string, string], control dispatch.Control) error {
			log.Info("dispatched",
				slog.String("dispatch_id", d.ID),
				slog.String("key", d.Key()),
				slog.Int("entries", len(d.Entries)),
			)
			control.ConfirmDispatched(ctx, d.ID, nil)
			return nil
		})
		return consumer, nil, func() {}, nil
	}

	connect := nats.ReuseConnection(nats.ConnectURL(cfg.NatsURL))
	pub, err := nats.NewPublisher[string, string](ctx, nats.PublisherConfig{
		Connect:    connect,
		Log:        log,
		Subject:    cfg.Subject,
		StreamName: cfg.StreamName,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create publisher: %w", err)
	}
	kvStore, err := nats.NewKvStore(ctx, nats.KvConfig{Connect: connect, Log: log, Bucket: cfg.KVBucket})
	if err != nil {
		pub.Close()
		return nil, nil, nil, fmt.Errorf("create kv store: %w", err)
	}
	cleanup := func() {
		kvStore.Close()
		pub.Close()
	}
	return pub, nats.NewTracker[string, string](kvStore, ""), cleanup, nil
}

func deposit(ctx context.Context, log *slog.Logger, cfg Config, s store.StateStore[string, string]) error {
	versions := make(map[string]int, cfg.Accounts)
	balances := make(map[string]int, cfg.Accounts)

	ticker := time.NewTicker(max(cfg.WriteInterval, time.Millisecond))
	defer ticker.Stop()

	for i := range cfg.Writes {
		id := fmt.Sprintf("account-%d", i%cfg.Accounts)
		amount := 1 + i%7

		acc := Account{ID: id, Balance: balances[id] + amount}
		c := actor.NewCompletes[store.WriteResult]()
		s.Write(ctx, id, acc, versions[id], store.WriteResultFunc(c.Complete),
			store.WithSources(Deposited{Account: id, Amount: amount}),
			store.WithMetadata(symbio.MetadataWithOperation("deposit")),
		)
		res, err := c.Await(ctx)
		if err != nil {
			return err
		}
		if res.Err != nil {
			return fmt.Errorf("deposit into %s: %w", id, res.Err)
		}
		versions[id] = res.StateVersion
		balances[id] = acc.Balance

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	log.Info("deposits written", slog.Int("writes", cfg.Writes), slog.Int("accounts", cfg.Accounts))
	return nil
}

// drain waits until every dispatchable is confirmed.
func drain(ctx context.Context, log *slog.Logger, ctrl *dispatch.Controller[string, string]) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		n, err := ctrl.Pending(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			log.Info("all dispatchables confirmed")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
