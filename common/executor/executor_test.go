package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func closedWithin(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Errorf("done not closed")
	}
}

func TestExecutor_Cancel(t *testing.T) {
	executor := New(func() error {
		t.Errorf("canceled executor must not run")
		return nil
	})
	assert.True(t, executor.Cancel())
	closedWithin(t, executor.Done())
	ran, err := executor.Exec()
	assert.False(t, ran)
	assert.NoError(t, err)
	assert.True(t, executor.Canceled())
	assert.False(t, executor.Executed())
	assert.False(t, executor.Cancel())
}

func TestExecutor_Exec(t *testing.T) {
	boom := errors.New("boom")
	started := false
	executor := New(func() error {
		started = true
		return boom
	})
	ran, err := executor.Exec()
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
	closedWithin(t, executor.Done())
	assert.True(t, started)
	assert.ErrorIs(t, executor.Err(), boom)
	assert.False(t, executor.Cancel())
	assert.False(t, executor.Canceled())
	assert.True(t, executor.Executed())

	ran, _ = executor.Exec()
	assert.False(t, ran)
}

func TestExecutor_CancelWhenDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	executor := New(func() error { return nil })
	stop := executor.CancelWhenDone(ctx)
	defer stop()
	cancel()
	closedWithin(t, executor.Done())
	assert.True(t, executor.Canceled())

	executor = New(func() error { return nil })
	stop = executor.CancelWhenDone(context.Background())
	assert.True(t, stop())
	ran, err := executor.Exec()
	assert.True(t, ran)
	assert.NoError(t, err)
}

func TestExecutor_execPanic(t *testing.T) {
	executor := New(func() error {
		panic("")
	})
	assert.Panics(t, func() {
		_, _ = executor.Exec()
	})
	closedWithin(t, executor.Done())
	ran, _ := executor.Exec()
	assert.False(t, ran)
	assert.False(t, executor.Cancel())
	assert.False(t, executor.Canceled())
}
