package operator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed[T any](values ...T) <-chan T {
	in := make(chan T, len(values))
	for _, value := range values {
		in <- value
	}
	close(in)
	return in
}

func collect[T any](t *testing.T, out <-chan T) []T {
	t.Helper()
	var values []T
	deadline := time.After(5 * time.Second)
	for {
		select {
		case value, ok := <-out:
			if !ok {
				return values
			}
			values = append(values, value)
		case <-deadline:
			require.FailNow(t, "operator output did not close")
		}
	}
}

func TestPairwiseStartWith(t *testing.T) {
	t.Run("case-1", func(t *testing.T) {
		pairs := collect(t, PairwiseStartWith(context.Background(), 0, feed(1, 2, 3)))
		assert.Equal(t, []Pair[int]{{0, 1}, {1, 2}, {2, 3}}, pairs)
	})
	t.Run("case-2", func(t *testing.T) {
		pairs := collect(t, PairwiseStartWith(context.Background(), "seed", feed[string]()))
		assert.Empty(t, pairs)
	})
	t.Run("case-3", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		in := make(chan int)
		out := PairwiseStartWith(ctx, 0, in)
		in <- 1
		assert.Equal(t, Pair[int]{0, 1}, <-out)
		cancel()
		assert.Empty(t, collect(t, out))
	})
}

func TestDebounce(t *testing.T) {
	t.Run("burst", func(t *testing.T) {
		in := make(chan int)
		out := Debounce(context.Background(), 50*time.Millisecond, in)
		go func() {
			for i := 1; i <= 5; i++ {
				in <- i
			}
			time.Sleep(200 * time.Millisecond)
			in <- 6
			time.Sleep(200 * time.Millisecond)
			close(in)
		}()
		assert.Equal(t, []int{5, 6}, collect(t, out))
	})
	t.Run("flush-on-close", func(t *testing.T) {
		out := Debounce(context.Background(), time.Hour, feed(1, 2, 3))
		assert.Equal(t, []int{3}, collect(t, out))
	})
	t.Run("zero-window", func(t *testing.T) {
		out := Debounce(context.Background(), 0, feed(1, 2, 3))
		assert.Equal(t, []int{1, 2, 3}, collect(t, out))
	})
	t.Run("slow-consumer", func(t *testing.T) {
		in := make(chan int)
		out := Debounce(context.Background(), 10*time.Millisecond, in)
		in <- 1
		time.Sleep(100 * time.Millisecond)
		in <- 2
		in <- 3
		close(in)
		assert.Equal(t, []int{3}, collect(t, out))
	})
	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		in := make(chan int)
		out := Debounce(ctx, time.Hour, in)
		in <- 1
		cancel()
		assert.Empty(t, collect(t, out))
	})
}

func TestDistinct(t *testing.T) {
	equal := func(a, b int) bool { return a == b }
	in := feed(Pair[int]{0, 1}, Pair[int]{1, 1}, Pair[int]{1, 2}, Pair[int]{2, 2})
	assert.Equal(t, []Pair[int]{{0, 1}, {1, 2}}, collect(t, Distinct(context.Background(), equal, in)))
}
