package state

import "sync/atomic"

type Subscription struct {
	id        uint64
	c         chan State
	container *Container
	dropped   atomic.Uint64
}

// C is closed by Unsubscribe.
func (s *Subscription) C() <-chan State {
	return s.c
}

func (s *Subscription) Unsubscribe() {
	s.container.unsubscribe(s)
}

// Dropped counts the snapshots discarded because the subscriber lagged behind.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// offer runs under the container mutex, so it is the only sender.
func (s *Subscription) offer(snapshot State) {
	for {
		select {
		case s.c <- snapshot:
			return
		default:
		}
		select {
		case <-s.c:
			s.dropped.Add(1)
			s.container.logger.Debugw("subscriber lagging, dropped oldest snapshot", "subscription", s.id)
		default:
		}
	}
}
