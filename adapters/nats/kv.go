package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/symbio-go/internal/codec"
	"github.com/codewandler/symbio-go/ports/kv"
)

const defaultKvBucket = "symbio_dispatch"

type KvConfig struct {
	Connect Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
	Bucket  string       // Bucket name, default "symbio_dispatch"
	// TTL expires keys of the bucket. JetStream KV has no per-key TTL on
	// Put, so kv.PutOptions.TTL is ignored.
	TTL      time.Duration
	MaxBytes int64
	Storage  jetstream.StorageType
}

// KvStore implements kv.Store on a JetStream key-value bucket.
type KvStore struct {
	kv      jetstream.KeyValue
	closeNc closeFunc
	log     *slog.Logger
}

// record is the stored form of a kv.Entry.
type record struct {
	Data []byte         `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

func NewKvStore(ctx context.Context, cfg KvConfig) (*KvStore, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = defaultKvBucket
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = 64 * 1024 * 1024
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

	bkt, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   bucket,
		Storage:  cfg.Storage,
		TTL:      cfg.TTL,
		MaxBytes: maxBytes,
	})
	if err != nil {
		closeNc()
		return nil, fmt.Errorf("create kv bucket %s: %w", bucket, err)
	}

	return &KvStore{
		kv:      bkt,
		closeNc: closeNc,
		log:     log.With(slog.String("kv", "nats"), slog.String("bucket", bucket)),
	}, nil
}

func (k *KvStore) Close() {
	k.closeNc()
	k.log.Debug("closed kv store")
}

func (k *KvStore) Put(ctx context.Context, key string, entry kv.Entry, _ kv.PutOptions) error {
	data, err := codec.Encode(codec.JSON{}, record{Data: entry.Data, Meta: entry.Meta})
	if err != nil {
		return err
	}
	if _, err := k.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (k *KvStore) Get(ctx context.Context, key string) (kv.Entry, error) {
	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, fmt.Errorf("get %s: %w", key, err)
	}
	rec, err := codec.Decode[record](codec.JSON{}, v.Value())
	if err != nil {
		return kv.Entry{}, err
	}
	return kv.Entry{Data: rec.Data, Meta: rec.Meta}, nil
}

func (k *KvStore) Delete(ctx context.Context, key string) error {
	if err := k.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (k *KvStore) Keys(ctx context.Context) ([]string, error) {
	lister, err := k.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}
	return keys, nil
}

var _ kv.Store = (*KvStore)(nil)
