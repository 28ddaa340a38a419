// Package executor holds a unit of work back until it is either run or
// canceled, whichever comes first.
package executor

import (
	"context"
	"sync/atomic"
)

const (
	pending uint32 = iota
	running
	finished
	canceled
)

// Executor runs its function at most once. The persist orchestrator keeps
// the persister start in one while hydration is in progress.
type Executor struct {
	fn    func() error
	state atomic.Uint32
	done  chan struct{}
	err   error
}

func New(fn func() error) *Executor {
	return &Executor{fn: fn, done: make(chan struct{})}
}

// Exec runs the function on the calling goroutine unless the executor was
// canceled or already ran. ran reports whether this call ran it.
func (e *Executor) Exec() (ran bool, err error) {
	if !e.state.CompareAndSwap(pending, running) {
		return false, nil
	}
	defer func() {
		e.state.Store(finished)
		close(e.done)
	}()
	e.err = e.fn()
	return true, e.err
}

// Cancel prevents a pending executor from ever running.
func (e *Executor) Cancel() bool {
	if e.state.CompareAndSwap(pending, canceled) {
		close(e.done)
		return true
	}
	return false
}

// CancelWhenDone cancels the executor once ctx is done. The returned stop
// detaches it again.
func (e *Executor) CancelWhenDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { e.Cancel() })
}

func (e *Executor) Canceled() bool {
	return e.state.Load() == canceled
}

func (e *Executor) Executed() bool {
	return e.state.Load() == finished
}

// Done is closed once the function returned or the executor was canceled.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Err is the function's result, valid after Done.
func (e *Executor) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}
