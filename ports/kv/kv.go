// Package kv is the key-value port used for durable bookkeeping such as the
// dispatcher's unconfirmed dispatchables.
package kv

import (
	"context"
	"errors"
	"time"

	"github.com/codewandler/symbio-go/internal/codec"
)

var (
	ErrNotFound = errors.New("not found")
)

type Entry struct {
	Data []byte
	Meta map[string]any
}

type PutOptions struct {
	// TTL expires the key after the given duration, where the backend
	// supports it. Zero keeps the key.
	TTL time.Duration
}

type Store interface {
	Put(ctx context.Context, key string, entry Entry, opts PutOptions) error
	Get(ctx context.Context, key string) (entry Entry, err error)
	Delete(ctx context.Context, key string) error
	// Keys lists all live keys in unspecified order.
	Keys(ctx context.Context) ([]string, error)
}

// Put encodes v as JSON and stores it under key.
func Put[T any](ctx context.Context, store Store, key string, v T, opts PutOptions) error {
	data, err := codec.Encode(codec.JSON{}, v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, Entry{Data: data}, opts)
}

// Get loads key and decodes it from JSON.
func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return out, err
	}
	return codec.Decode[T](codec.JSON{}, entry.Data)
}
