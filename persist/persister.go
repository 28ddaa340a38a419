package persist

import (
	"context"
	"sort"

	"github.com/RuiFG/statesync/common/safe"
	"github.com/RuiFG/statesync/operator"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/store"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type persister struct {
	*options
	store     *store.Store
	container *state.Container

	snapshots     tally.Counter
	passes        tally.Counter
	writes        tally.Counter
	casRejections tally.Counter
	errors        tally.Counter
	passLatency   tally.Timer
}

func newPersister(st *store.Store, c *state.Container, o *options) *persister {
	scope := o.scope.SubScope("persist")
	return &persister{
		options:       o,
		store:         st,
		container:     c,
		snapshots:     scope.Counter("snapshots"),
		passes:        scope.Counter("passes"),
		writes:        scope.Counter("writes"),
		casRejections: scope.Counter("cas_rejections"),
		errors:        scope.Counter("errors"),
		passLatency:   scope.Timer("pass_latency"),
	}
}

// Persist writes every later distinct snapshot of c to st, one top-level key
// at a time, until the returned subscription ends.
func Persist(ctx context.Context, st *store.Store, c *state.Container, opts ...Option) (*Subscription, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	subscription := newSubscription(ctx)
	subscription.markLoaded()
	p := newPersister(st, c, o)
	seed, source := c.Observe(subscriptionBuffer)
	subscription.start(func(ctx context.Context) error {
		return p.run(ctx, seed, source)
	})
	return subscription, nil
}

// run drives container -> debounce -> pairwise(seed) -> distinct -> sequential
// writes. A pass finishes before the next snapshot is taken.
func (p *persister) run(ctx context.Context, seed state.State, source *state.Subscription) error {
	defer source.Unsubscribe()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.logger.Infow("persister started", "debounce", p.debounce)
	debounced := operator.Debounce(ctx, p.debounce, source.C())
	pairs := operator.PairwiseStartWith(ctx, seed, debounced)
	// the distinct policy runs on the operator goroutine, a panic there stops
	// the pipeline and is returned from run
	failed := make(chan error, 1)
	changes := operator.Distinct(ctx, func(previous, current state.State) bool {
		p.snapshots.Inc(1)
		same := false
		if err := safe.Run(func() error {
			same = p.distinct(previous, current)
			return nil
		}); err != nil {
			select {
			case failed <- errors.WithMessage(err, "distinct policy failed"):
			default:
			}
			cancel()
			return true
		}
		return same
	}, pairs)

	for pair := range changes {
		if err := p.pass(ctx, pair.Current); err != nil {
			p.logger.Errorw("persister stopped", "err", err)
			return err
		}
	}
	select {
	case err := <-failed:
		p.logger.Errorw("persister stopped", "err", err)
		return err
	default:
	}
	p.logger.Infow("persister stopped", "dropped", source.Dropped())
	return nil
}

func (p *persister) pass(ctx context.Context, snapshot state.State) (err error) {
	ctx, span := p.tracer.Start(ctx, "persist.pass", withNamespace(p.options))
	defer span.End()
	defer p.passLatency.Start().Stop()
	p.passes.Inc(1)

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// a write that started is allowed to complete after cancellation
	writeCtx := context.WithoutCancel(ctx)
	written := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			return nil
		}
		seq, ok, err := p.store.Put(writeCtx, p.key(key), snapshot[key], store.WithCAS(p.cas))
		if err != nil {
			p.errors.Inc(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, "write failed")
			return err
		}
		if ok {
			written++
			p.writes.Inc(1)
			p.logger.Debugw("key persisted", "key", key, "seq", seq)
		} else {
			p.casRejections.Inc(1)
			p.logger.Debugw("key unchanged", "key", key, "seq", seq)
		}
	}
	span.SetAttributes(attribute.Int("keys", len(keys)), attribute.Int("written", written))
	return nil
}
