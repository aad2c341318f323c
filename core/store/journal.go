package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codewandler/symbio-go/core/actor"
	"github.com/codewandler/symbio-go/core/symbio"
)

type journalStream[RS, E any] struct {
	// entries[i] holds stream version i+1.
	entries  []symbio.Entry[E]
	snapshot *symbio.State[RS]
}

func (s *journalStream[RS, E]) version() int { return len(s.entries) }

// InMemoryJournal is the reference [Journal]. Every stream is an ordered run
// of entries inside the journal's single entry log.
type InMemoryJournal[RS, E any] struct {
	*memoryBase[RS, E]

	// owned by the actor
	streams       map[string]*journalStream[RS, E]
	streamReaders map[string]*journalStreamReader[RS, E]
}

func NewInMemoryJournal[RS, E any](opt Options[RS, E]) *InMemoryJournal[RS, E] {
	return &InMemoryJournal[RS, E]{
		memoryBase:    newMemoryBase("journal", opt),
		streams:       map[string]*journalStream[RS, E]{},
		streamReaders: map[string]*journalStreamReader[RS, E]{},
	}
}

func (j *InMemoryJournal[RS, E]) Append(ctx context.Context, streamName string, streamVersion int, source any, interest AppendResultInterest, opts ...Option) {
	if source == nil {
		j.AppendAll(ctx, streamName, streamVersion, nil, interest, opts...)
		return
	}
	j.AppendAll(ctx, streamName, streamVersion, []any{source}, interest, opts...)
}

func (j *InMemoryJournal[RS, E]) AppendAll(ctx context.Context, streamName string, fromStreamVersion int, sources []any, interest AppendResultInterest, opts ...Option) {
	o := applyOptions(opts)
	report := reportOnce(func(r AppendResult) {
		if interest != nil {
			interest.AppendResultedIn(r)
		}
	})
	failed := func(err error) AppendResult {
		return AppendResult{
			StreamName:    streamName,
			StreamVersion: fromStreamVersion + len(sources) - 1,
			Sources:       sources,
			Snapshot:      o.snapshot,
			Metadata:      o.metadata,
			Object:        o.object,
			Err:           err,
		}
	}

	switch {
	case streamName == "":
		report(failed(fmt.Errorf("%w: append requires a stream name", symbio.ErrValidation)))
		return
	case len(sources) == 0:
		report(failed(fmt.Errorf("%w: stream %s", ErrNoSources, streamName)))
		return
	case fromStreamVersion < 1:
		report(failed(fmt.Errorf("%w: stream version %d, versions start at 1", symbio.ErrValidation, fromStreamVersion)))
		return
	}

	j.submit(ctx, "append", func(actx context.Context) {
		report(j.append(actx, streamName, fromStreamVersion, sources, o, failed))
	}, func(err error) {
		report(failed(err))
	})
}

func (j *InMemoryJournal[RS, E]) append(ctx context.Context, streamName string, fromVersion int, sources []any, o callOptions, failed func(error) AppendResult) AppendResult {
	defer j.metrics.WriteDuration(j.name).ObserveDuration()

	log := j.log.With(slog.Group("stream", slog.String("name", streamName), slog.Int("from_version", fromVersion)))

	stream, ok := j.streams[streamName]
	current := 0
	if ok {
		current = stream.version()
	}
	if fromVersion != current+1 {
		j.metrics.ConcurrencyConflict(j.name)
		log.Debug("append rejected", slog.Int("current_version", current))
		return failed(fmt.Errorf("%w: stream %s is at version %d, cannot append version %d",
			ErrConcurrencyConflict, streamName, current, fromVersion))
	}

	entries, err := j.toEntries(sources, o.metadata)
	if err != nil {
		return failed(err)
	}
	last := current + len(entries)

	var snapshot *symbio.State[RS]
	if o.snapshot != nil {
		raw, err := j.stateAdapters.ToRawState(streamName, o.snapshot, last, o.metadata)
		if err != nil {
			return failed(err)
		}
		snapshot = &raw
	}

	committed, err := j.commit("append", streamName, nil, entries)
	if err != nil {
		log.Warn("append failed", slog.Any("error", err))
		return failed(err)
	}
	if !ok {
		stream = &journalStream[RS, E]{}
		j.streams[streamName] = stream
	}
	stream.entries = append(stream.entries, committed...)
	if snapshot != nil {
		stream.snapshot = snapshot
	}

	log.Debug("append", slog.Int("version", last), slog.Bool("snapshot", snapshot != nil))
	res := AppendResult{
		StreamName:    streamName,
		StreamVersion: last,
		Sources:       sources,
		Snapshot:      o.snapshot,
		Metadata:      o.metadata,
		Object:        o.object,
	}
	j.dispatch(ctx, streamName, snapshot, committed)
	return res
}

// StreamReader returns the stream reader registered under name.
func (j *InMemoryJournal[RS, E]) StreamReader(ctx context.Context, name string) (StreamReader[RS, E], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: stream reader name must not be empty", symbio.ErrValidation)
	}
	return actor.Call(ctx, j.actor, func(context.Context) (StreamReader[RS, E], error) {
		r, ok := j.streamReaders[name]
		if !ok {
			r = &journalStreamReader[RS, E]{name: name, journal: j}
			j.streamReaders[name] = r
		}
		return r, nil
	})
}

func (j *InMemoryJournal[RS, E]) EntryReader(ctx context.Context, name string) (EntryReader[E], error) {
	return j.entryReader(ctx, name)
}

// streamFor runs on the actor.
func (j *InMemoryJournal[RS, E]) streamFor(streamName string) Stream[RS, E] {
	defer j.metrics.ReadDuration(j.name).ObserveDuration()

	out := Stream[RS, E]{StreamName: streamName, Entries: symbio.NoEntries[E]()}
	stream, ok := j.streams[streamName]
	if !ok {
		return out
	}
	out.StreamVersion = stream.version()
	from := 0
	if stream.snapshot != nil {
		snap := *stream.snapshot
		out.Snapshot = &snap
		from = snap.DataVersion
	}
	if from < len(stream.entries) {
		out.Entries = append([]symbio.Entry[E](nil), stream.entries[from:]...)
	}
	return out
}

type journalStreamReader[RS, E any] struct {
	name    string
	journal *InMemoryJournal[RS, E]
}

func (r *journalStreamReader[RS, E]) Name() string { return r.name }

func (r *journalStreamReader[RS, E]) StreamFor(ctx context.Context, streamName string) (Stream[RS, E], error) {
	return actor.Call(ctx, r.journal.actor, func(context.Context) (Stream[RS, E], error) {
		return r.journal.streamFor(streamName), nil
	})
}

var _ Journal[string, string] = (*InMemoryJournal[string, string])(nil)
