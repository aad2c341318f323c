package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/symbio-go/core/dispatch"
	"github.com/codewandler/symbio-go/internal/codec"
	"github.com/codewandler/symbio-go/ports/kv"
)

const (
	defaultSubject    = "symbio.dispatch"
	defaultStreamName = "SYMBIO_DISPATCH"
)

type PublisherConfig struct {
	Connect    Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log        *slog.Logger // Log for diagnostics (optional)
	Subject    string       // Subject dispatchables are published to, default "symbio.dispatch"
	StreamName string       // StreamName of the stream capturing Subject, default "SYMBIO_DISPATCH"
	// Duplicates is the stream's de-duplication window. Redeliveries of the
	// same dispatchable inside it are dropped by the server.
	Duplicates time.Duration
}

// Publisher is a dispatch.Consumer that publishes every dispatchable as JSON
// to a JetStream stream and confirms it once the server acknowledged it. The
// dispatchable id is the message id, so redeliveries de-duplicate.
type Publisher[RS, E any] struct {
	js      jetstream.JetStream
	closeNc closeFunc
	log     *slog.Logger
	subject string
	stream  string
}

func NewPublisher[RS, E any](ctx context.Context, cfg PublisherConfig) (*Publisher[RS, E], error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = defaultSubject
	}
	streamName := strings.ToUpper(cfg.StreamName)
	if streamName == "" {
		streamName = defaultStreamName
	}
	dupes := cfg.Duplicates
	if dupes <= 0 {
		dupes = 2 * time.Minute
	}

	nc, closeNc, err := doConnect()
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		closeNc()
		return nil, err
	}

	log = log.With(
		slog.String("publisher", "nats_js"),
		slog.String("stream", streamName),
		slog.String("subject", subject),
	)

	si, err := ensureStream(ctx, js, jetstream.StreamConfig{
		Name:       streamName,
		Subjects:   []string{subject},
		Storage:    jetstream.FileStorage,
		Duplicates: dupes,
	})
	if err != nil {
		closeNc()
		return nil, fmt.Errorf("ensure stream %s: %w", streamName, err)
	}
	log.Debug("ensured stream", slog.Uint64("messages", si.State.Msgs))

	return &Publisher[RS, E]{
		js:      js,
		closeNc: closeNc,
		log:     log,
		subject: subject,
		stream:  streamName,
	}, nil
}

func (p *Publisher[RS, E]) StreamName() string { return p.stream }

func (p *Publisher[RS, E]) Close() {
	p.js.CleanupPublisher()
	p.closeNc()
	p.log.Debug("closed publisher")
}

func (p *Publisher[RS, E]) Consume(ctx context.Context, d dispatch.Dispatchable[RS, E], control dispatch.Control) error {
	msg := natsgo.NewMsg(p.subject)
	msg.Header.Set("x-dispatch-key", d.Key())
	if d.HasState() {
		msg.Header.Set("x-state-type", d.State.Type)
	}

	var err error
	msg.Data, err = codec.Encode(codec.JSON{}, d)
	if err != nil {
		return err
	}

	ack, err := p.js.PublishMsg(ctx, msg, jetstream.WithMsgID(d.ID))
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", d.ID, p.subject, err)
	}

	p.log.Debug(
		"published",
		slog.String("dispatch_id", d.ID),
		slog.Group(
			"ack",
			slog.Uint64("seq", ack.Sequence),
			slog.String("stream", ack.Stream),
			slog.Bool("dup", ack.Duplicate),
		),
	)

	if control != nil {
		control.ConfirmDispatched(ctx, d.ID, nil)
	}
	return nil
}

// NewTracker returns a dispatch tracker that keeps the unconfirmed set in the
// given KV store.
func NewTracker[RS, E any](store kv.Store, prefix string) *dispatch.KVTracker[RS, E] {
	return dispatch.NewKVTracker[RS, E](store, dispatch.KVTrackerOptions{Prefix: prefix})
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg jetstream.StreamConfig) (*jetstream.StreamInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*natsgo.DefaultTimeout)
	defer cancel()

	s, err := js.CreateOrUpdateStream(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s.Info(ctx)
}

var _ dispatch.Consumer[string, string] = (*Publisher[string, string])(nil)
