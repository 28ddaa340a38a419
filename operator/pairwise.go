// Package operator holds the channel stages the persist pipeline is assembled from.
// Every stage owns its output channel and closes it when the input closes or ctx is done.
package operator

import "context"

type Pair[T any] struct {
	Previous T
	Current  T
}

// PairwiseStartWith emits (seed, v1), (v1, v2), ... for the values read from in.
// The seed on its own is never emitted.
func PairwiseStartWith[T any](ctx context.Context, seed T, in <-chan T) <-chan Pair[T] {
	out := make(chan Pair[T])
	go func() {
		defer close(out)
		previous := seed
		for {
			select {
			case <-ctx.Done():
				return
			case current, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- Pair[T]{Previous: previous, Current: current}:
					previous = current
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
