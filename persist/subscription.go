package persist

import (
	"context"
	"sync"

	"github.com/RuiFG/statesync/common/safe"
	"github.com/RuiFG/statesync/common/status"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Subscription is a running synchronization. It ends on Cancel, on
// cancellation of the context it was started with, or on the first error.
type Subscription struct {
	id     string
	status status.Status

	ctx    context.Context
	cancel context.CancelFunc

	loaded     chan struct{}
	loadedOnce sync.Once
	done       chan struct{}
	err        error
}

func newSubscription(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	return &Subscription{
		id:     uuid.NewString(),
		status: status.Ready,
		ctx:    ctx,
		cancel: cancel,
		loaded: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *Subscription) ID() string {
	return s.id
}

// Loaded is closed once hydration completed. It stays open when loading failed.
func (s *Subscription) Loaded() <-chan struct{} {
	return s.loaded
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err is the error that stopped the subscription, nil while it runs or after a clean cancel.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Cancel stops the subscription. A write in flight completes, no new one starts.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Wait blocks until the subscription ended or ctx is done.
func (s *Subscription) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Subscription) Status() status.Status {
	return status.Load(&s.status)
}

func (s *Subscription) markLoaded() {
	s.loadedOnce.Do(func() { close(s.loaded) })
}

// start runs fn on its own goroutine and records how it ended.
func (s *Subscription) start(fn func(ctx context.Context) error) {
	if !status.CAP(&s.status, status.Ready, status.Running) {
		return
	}
	go func() {
		err := <-safe.Go(func() error { return fn(s.ctx) })
		if err != nil && s.ctx.Err() != nil && errors.Is(err, s.ctx.Err()) {
			err = nil
		}
		s.finish(err)
	}()
}

func (s *Subscription) finish(err error) {
	if status.Close(&s.status) {
		s.err = err
		s.cancel()
		close(s.done)
	}
}
