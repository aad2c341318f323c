package store

import "github.com/codewandler/symbio-go/core/symbio"

// NoVersion is the expected version of an identity that has no state yet.
const NoVersion = 0

// Option sets the optional parameters of a single store call. Omitted
// parameters take their defaults: empty metadata, no sources, no object and
// no snapshot.
type Option func(*callOptions)

type callOptions struct {
	sources  []any
	metadata symbio.Metadata
	object   any
	snapshot any
}

// WithSources adds domain sources that are converted to entries and
// appended together with the write.
func WithSources(sources ...any) Option {
	return func(o *callOptions) { o.sources = append(o.sources, sources...) }
}

// WithMetadata attaches md to the written state and all of its entries.
func WithMetadata(md symbio.Metadata) Option {
	return func(o *callOptions) { o.metadata = md }
}

// WithObject passes v through to the result unchanged.
func WithObject(v any) Option {
	return func(o *callOptions) { o.object = v }
}

// WithSnapshot stores state as the stream snapshot of a journal append.
func WithSnapshot(state any) Option {
	return func(o *callOptions) { o.snapshot = state }
}

func applyOptions(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
