// Package store is a durable, versioned, ordered key-value store over a pluggable Backend.
package store

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/value"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/RuiFG/statesync/store"

// Entry is one durable record. Seq is the store sequence of the write that produced it.
type Entry struct {
	Key   []byte
	Value value.Value
	Seq   uint64
}

type Store struct {
	// mutex serializes puts so CAS read-compare-write is atomic. It also
	// guards filling the cache.
	mutex   sync.Mutex
	backend Backend
	seq     atomic.Uint64
	cache   *lru.Cache[string, Entry]
	closed  atomic.Bool

	logger log.Logger
	tracer trace.Tracer

	puts          tally.Counter
	casRejections tally.Counter
	gets          tally.Counter
	scans         tally.Counter
	putLatency    tally.Timer
}

// Open wraps backend and restores the sequence counter from it.
func Open(backend Backend, opts ...Option) (*Store, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = log.Named("store")
	}
	if o.scope == nil {
		o.scope = tally.NoopScope
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	scope := o.scope.SubScope("store")
	s := &Store{
		backend:       backend,
		logger:        o.logger,
		tracer:        o.tracer,
		puts:          scope.Counter("puts"),
		casRejections: scope.Counter("cas_rejections"),
		gets:          scope.Counter("gets"),
		scans:         scope.Counter("scans"),
		putLatency:    scope.Timer("put_latency"),
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, Entry](o.cacheSize)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create entry cache")
		}
		s.cache = cache
	}
	data, found, err := backend.Get(context.Background(), seqKey)
	if err != nil {
		return nil, &ReadError{Op: "open", Key: seqKey, Err: err}
	}
	if found {
		seq, err := decodeSeq(data)
		if err != nil {
			return nil, &ReadError{Op: "open", Key: seqKey, Err: err}
		}
		s.seq.Store(seq)
	}
	s.logger.Debugw("store opened", "seq", s.seq.Load())
	return s, nil
}

// Seq is the sequence of the latest accepted write, 0 for an empty store.
func (s *Store) Seq() uint64 {
	return s.seq.Load()
}

func (s *Store) Get(ctx context.Context, key []byte) (Entry, bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.Get", trace.WithAttributes(attribute.String("key", string(key))))
	defer span.End()
	s.gets.Inc(1)
	if s.closed.Load() {
		return Entry{}, false, &ReadError{Op: "get", Key: key, Err: ErrClosed}
	}
	if s.cache != nil {
		s.mutex.Lock()
		defer s.mutex.Unlock()
	}
	entry, found, err := s.get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		return Entry{}, false, &ReadError{Op: "get", Key: key, Err: err}
	}
	return entry, found, nil
}

// get holds s.mutex whenever the cache is enabled, otherwise a stale backend
// read could be cached over a newer put.
func (s *Store) get(ctx context.Context, key []byte) (Entry, bool, error) {
	if s.cache != nil {
		if entry, ok := s.cache.Get(string(key)); ok {
			return entry, true, nil
		}
	}
	data, found, err := s.backend.Get(ctx, dataKey(key))
	if err != nil || !found {
		return Entry{}, false, err
	}
	entry, err := decodeRecord(key, data)
	if err != nil {
		return Entry{}, false, err
	}
	if s.cache != nil {
		s.cache.Add(string(key), entry)
	}
	return entry, true, nil
}

// Put writes v under key and returns the sequence assigned to it. With a CAS
// policy that rejects the candidate nothing is written, written is false and
// seq is the sequence of the entry already there.
func (s *Store) Put(ctx context.Context, key []byte, v value.Value, opts ...PutOption) (seq uint64, written bool, err error) {
	ctx, span := s.tracer.Start(ctx, "store.Put", trace.WithAttributes(attribute.String("key", string(key))))
	defer span.End()
	defer s.putLatency.Start().Stop()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "put failed")
		}
	}()
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if v == nil {
		v = value.Null{}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed.Load() {
		return 0, false, &WriteError{Key: key, Err: ErrClosed}
	}

	candidate := Entry{Key: key, Value: v, Seq: s.seq.Load() + 1}
	if o.cas != nil {
		previous, found, err := s.get(ctx, key)
		if err != nil {
			return 0, false, &WriteError{Key: key, Err: errors.WithMessage(err, "failed to read previous entry")}
		}
		if found && !o.cas(previous, candidate) {
			s.casRejections.Inc(1)
			span.SetAttributes(attribute.Bool("written", false))
			return previous.Seq, false, nil
		}
	}
	record, err := encodeRecord(candidate.Seq, v)
	if err != nil {
		return 0, false, &WriteError{Key: key, Err: err}
	}
	if err := s.backend.Write(ctx, []Mutation{
		{Key: dataKey(key), Value: record},
		{Key: seqKey, Value: encodeSeq(candidate.Seq)},
	}); err != nil {
		return 0, false, &WriteError{Key: key, Err: err}
	}
	s.seq.Store(candidate.Seq)
	if s.cache != nil {
		s.cache.Add(string(key), candidate)
	}
	s.puts.Inc(1)
	span.SetAttributes(attribute.Bool("written", true), attribute.Int64("seq", int64(candidate.Seq)))
	return candidate.Seq, true, nil
}

// Scan lazily yields the entries of r in key order. After an error nothing
// more is yielded.
func (s *Store) Scan(ctx context.Context, r Range) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		ctx, span := s.tracer.Start(ctx, "store.Scan")
		defer span.End()
		s.scans.Inc(1)
		if s.closed.Load() {
			yield(Entry{}, &ReadError{Op: "scan", Key: r.Lower, Err: ErrClosed})
			return
		}
		start := time.Now()

		lower, upper := dataRange(r)
		var (
			stopped bool
			count   int
		)
		err := s.backend.Iterate(ctx, lower, upper, func(backendKey, data []byte) bool {
			key := userKey(backendKey)
			entry, err := decodeRecord(key, data)
			if err != nil {
				stopped = true
				yield(Entry{}, &ReadError{Op: "scan", Key: key, Err: err})
				return false
			}
			count++
			if !yield(entry, nil) {
				stopped = true
				return false
			}
			return true
		})
		span.SetAttributes(attribute.Int("entries", count))
		if err != nil && !stopped {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			yield(Entry{}, &ReadError{Op: "scan", Key: r.Lower, Err: err})
		}
		s.logger.Debugw("scan finished", "entries", count, "elapsed", time.Since(start))
	}
}

// Close waits for a put in progress and closes the backend. Later calls
// fail with ErrClosed.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if s.cache != nil {
		s.cache.Purge()
	}
	return s.backend.Close()
}
