package persist

import (
	"context"

	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/store"
	"github.com/RuiFG/statesync/value"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Load merges every non-null entry of the namespace into c, one Set per
// entry in key order, and returns c once the scan is exhausted.
func Load(ctx context.Context, st *store.Store, c *state.Container, opts ...Option) (*state.Container, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return c, err
	}
	return c, load(ctx, st, c, o)
}

func load(ctx context.Context, st *store.Store, c *state.Container, o *options) (err error) {
	ctx, span := o.tracer.Start(ctx, "persist.Load", withNamespace(o))
	defer span.End()
	loaded, skipped := 0, 0
	defer func() {
		span.SetAttributes(attribute.Int("loaded", loaded), attribute.Int("skipped", skipped))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load failed")
		}
	}()

	for entry, err := range st.Scan(ctx, o.scanRange()) {
		if err != nil {
			var readErr *store.ReadError
			if !errors.As(err, &readErr) {
				err = &store.ReadError{Op: "load", Err: err}
			}
			o.logger.Errorw("failed to load state", "err", err)
			return err
		}
		if value.IsNull(entry.Value) {
			skipped++
			continue
		}
		c.Update(state.Set(o.subKey(entry.Key), entry.Value))
		loaded++
	}
	o.logger.Infow("state loaded", "loaded", loaded, "skipped", skipped)
	return nil
}

func withNamespace(o *options) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("namespace", o.name()))
}
