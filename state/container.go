// Package state is the observable in-memory state object that gets synchronized.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/value"
	"github.com/puzpuzpuz/xsync/v3"
)

// State maps top-level keys to values. Snapshots are never mutated in place:
// updaters build a new map.
type State = map[string]value.Value

// Updater derives the next state from the current one.
type Updater func(current State) State

type Option func(*Container)

func WithLogger(logger log.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// Container holds the current State and pushes every new snapshot to its subscriptions.
type Container struct {
	mutex       sync.Mutex
	current     State
	nextID      atomic.Uint64
	subscribers *xsync.MapOf[uint64, *Subscription]
	logger      log.Logger
}

func New(initial State, opts ...Option) *Container {
	c := &Container{
		current:     clone(initial),
		subscribers: xsync.NewMapOf[uint64, *Subscription](),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Named("state")
	}
	return c
}

// Value returns the current snapshot. Callers must not modify it.
func (c *Container) Value() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current
}

func (c *Container) Get(key string) (value.Value, bool) {
	v, ok := c.Value()[key]
	return v, ok
}

// Update applies fns in order and emits the result once to the current subscribers.
func (c *Container) Update(fns ...Updater) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	next := c.current
	for _, fn := range fns {
		next = fn(next)
	}
	if next == nil {
		next = State{}
	}
	c.current = next
	c.subscribers.Range(func(_ uint64, subscription *Subscription) bool {
		subscription.offer(next)
		return true
	})
}

// Subscribe registers a subscription receiving every snapshot emitted from now on.
// The channel holds at most buffer snapshots (at least one); when it is full the
// oldest one is dropped.
func (c *Container) Subscribe(buffer int) *Subscription {
	_, subscription := c.Observe(buffer)
	return subscription
}

// Observe is Subscribe that also returns the snapshot current at subscription
// time. No update can fall between the two.
func (c *Container) Observe(buffer int) (State, *Subscription) {
	if buffer < 1 {
		buffer = 1
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	subscription := &Subscription{
		id:        c.nextID.Add(1),
		c:         make(chan State, buffer),
		container: c,
	}
	c.subscribers.Store(subscription.id, subscription)
	return c.current, subscription
}

func (c *Container) unsubscribe(subscription *Subscription) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, loaded := c.subscribers.LoadAndDelete(subscription.id); loaded {
		close(subscription.c)
	}
}

func clone(s State) State {
	copied := make(State, len(s))
	for key, v := range s {
		copied[key] = v
	}
	return copied
}
