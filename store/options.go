package store

import (
	"github.com/RuiFG/statesync/log"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*options) error

type options struct {
	logger    log.Logger
	scope     tally.Scope
	tracer    trace.Tracer
	cacheSize int
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithScope reports store metrics under the "store" sub scope.
func WithScope(scope tally.Scope) Option {
	return func(o *options) error {
		o.scope = scope
		return nil
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithCache keeps up to size decoded entries in memory. 0 disables the cache.
func WithCache(size int) Option {
	return func(o *options) error {
		if size < 0 {
			return errors.Errorf("cache size %d must not be negative", size)
		}
		o.cacheSize = size
		return nil
	}
}

type PutOption func(*putOptions)

type putOptions struct {
	cas CASPolicy
}

// CASPolicy decides whether cand may replace prev. It is only consulted
// when the key already holds an entry.
type CASPolicy func(prev, cand Entry) bool

func WithCAS(policy CASPolicy) PutOption {
	return func(o *putOptions) {
		o.cas = policy
	}
}
