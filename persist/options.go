package persist

import (
	"time"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/store"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPrefix   = "state"
	DefaultDebounce = time.Second

	tracerName = "github.com/RuiFG/statesync/persist"
	// snapshots queued between the container and the debounce stage
	subscriptionBuffer = 16
)

var ErrMisuse = errors.New("misuse")

type Option func(*options) error

type options struct {
	prefix   string
	raw      bool
	debounce time.Duration
	cas      store.CASPolicy
	distinct DistinctPolicy
	logger   log.Logger
	scope    tally.Scope
	tracer   trace.Tracer
}

// WithPrefix namespaces every top-level key under prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) error {
		if err := store.ValidatePrefix(prefix); err != nil {
			return errors.WithMessage(ErrMisuse, err.Error())
		}
		o.prefix, o.raw = prefix, false
		return nil
	}
}

// WithoutPrefix stores top-level keys as they are.
func WithoutPrefix() Option {
	return func(o *options) error {
		o.prefix, o.raw = "", true
		return nil
	}
}

// WithDebounce sets the quiescence window, 0 writes every snapshot.
func WithDebounce(window time.Duration) Option {
	return func(o *options) error {
		if window < 0 {
			return errors.WithMessagef(ErrMisuse, "debounce %s must not be negative", window)
		}
		o.debounce = window
		return nil
	}
}

func WithCAS(policy store.CASPolicy) Option {
	return func(o *options) error {
		if policy == nil {
			return errors.WithMessage(ErrMisuse, "cas policy must not be nil")
		}
		o.cas = policy
		return nil
	}
}

func WithDistinct(policy DistinctPolicy) Option {
	return func(o *options) error {
		if policy == nil {
			return errors.WithMessage(ErrMisuse, "distinct policy must not be nil")
		}
		o.distinct = policy
		return nil
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithScope reports pipeline metrics under the "persist" sub scope.
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

func newOptions(opts ...Option) (*options, error) {
	o := &options{
		prefix:   DefaultPrefix,
		debounce: DefaultDebounce,
		cas:      DefaultCAS,
		distinct: DefaultDistinct,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = log.Global()
	}
	o.logger = o.logger.Named("persist." + o.name())
	if o.scope == nil {
		o.scope = tally.NoopScope
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o, nil
}

func (o *options) name() string {
	if o.raw {
		return "raw"
	}
	return o.prefix
}

// key maps a top-level state key to its durable key.
func (o *options) key(sub string) []byte {
	if o.raw {
		return store.RawKey(sub)
	}
	return store.CompositeKey(o.prefix, sub)
}

// subKey maps a durable key back to a top-level state key. Keys outside the
// prefix namespace come back unchanged.
func (o *options) subKey(key []byte) string {
	if o.raw {
		return string(key)
	}
	prefix, sub, ok := store.SplitKey(key)
	if !ok || prefix != o.prefix {
		return string(key)
	}
	return sub
}

func (o *options) scanRange() store.Range {
	if o.raw {
		return store.Range{}
	}
	return store.PrefixRange(o.prefix)
}
