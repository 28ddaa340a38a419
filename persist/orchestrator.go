package persist

import (
	"context"

	"github.com/RuiFG/statesync/common/executor"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/store"
)

// LoadThenPersist hydrates c from st and only then starts persisting it with
// the same options. It returns immediately: Loaded closes after hydration, a
// load failure ends the subscription with the store.ReadError before anything
// is written. Invalid options end it with ErrMisuse right away.
func LoadThenPersist(ctx context.Context, st *store.Store, c *state.Container, opts ...Option) *Subscription {
	subscription := newSubscription(ctx)
	o, err := newOptions(opts...)
	if err != nil {
		subscription.finish(err)
		return subscription
	}
	p := newPersister(st, c, o)
	subscription.start(func(ctx context.Context) error {
		start := executor.New(func() error {
			seed, source := c.Observe(subscriptionBuffer)
			return p.run(ctx, seed, source)
		})
		defer start.CancelWhenDone(ctx)()

		if err := load(ctx, st, c, o); err != nil {
			start.Cancel()
			return err
		}
		subscription.markLoaded()
		ran, err := start.Exec()
		if !ran {
			o.logger.Infow("canceled before persisting started")
			return nil
		}
		return err
	})
	return subscription
}
