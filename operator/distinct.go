package operator

import "context"

type EqualFn[T any] func(previous, current T) bool

// Distinct drops the pairs whose elements equal reports as equal.
func Distinct[T any](ctx context.Context, equal EqualFn[T], in <-chan Pair[T]) <-chan Pair[T] {
	out := make(chan Pair[T])
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case pair, ok := <-in:
				if !ok {
					return
				}
				if equal(pair.Previous, pair.Current) {
					continue
				}
				select {
				case out <- pair:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
