package operator

import (
	"context"
	"time"
)

// Debounce forwards a value only after window has passed without a newer one.
// A pending value is flushed when in closes. A non-positive window forwards
// everything unchanged. While the consumer is not receiving, newer values keep
// replacing the pending one.
func Debounce[T any](ctx context.Context, window time.Duration, in <-chan T) <-chan T {
	if window <= 0 {
		return forward(ctx, in)
	}
	out := make(chan T)
	go func() {
		defer close(out)
		timer := time.NewTimer(window)
		timer.Stop()
		defer timer.Stop()

		var (
			pending T
			has     bool
			ready   bool
			fire    <-chan time.Time
		)
		for {
			var send chan<- T
			if ready {
				send = out
			}
			select {
			case <-ctx.Done():
				return
			case value, ok := <-in:
				if !ok {
					if has {
						select {
						case out <- pending:
						case <-ctx.Done():
						}
					}
					return
				}
				pending, has, ready = value, true, false
				timer.Reset(window)
				fire = timer.C
			case <-fire:
				fire, ready = nil, true
			case send <- pending:
				var zero T
				pending, has, ready = zero, false, false
			}
		}
	}()
	return out
}

func forward[T any](ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case value, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- value:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
