package bus

import (
	"sync"

	"github.com/petal-labs/appcore/event"
)

// subscription is a registry-owned bounded queue delivering events to one
// logical consumer in FIFO order. Producer (publish) speed is decoupled from
// consumer (iteration) speed by the buffer; overflow is resolved by the
// registry's policy rather than by blocking the producer.
type subscription struct {
	reg      *Registry
	id       string
	ch       chan event.Event
	overflow OverflowPolicy

	mu     sync.Mutex
	closed bool
}

func newSubscription(reg *Registry, id string, buffer int, overflow OverflowPolicy) *subscription {
	return &subscription{
		reg:      reg,
		id:       id,
		ch:       make(chan event.Event, buffer),
		overflow: overflow,
	}
}

// Events returns the subscription's channel.
func (s *subscription) Events() <-chan event.Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel. Idempotent:
// repeated or concurrent calls, including concurrently with a publish in
// flight, are safe.
func (s *subscription) Close() error {
	s.reg.unregister(s.id)
	s.close()
	return nil
}

// close closes the channel exactly once.
func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// send enqueues an event. Sends to a closed subscription are dropped. A full
// buffer is resolved by the overflow policy: DropOldest evicts the oldest
// buffered event before enqueueing, DropNewest discards the incoming one.
func (s *subscription) send(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- e:
		return
	default:
	}

	if s.overflow == DropNewest {
		return
	}

	// Evict the oldest buffered event to make room. The consumer may drain
	// concurrently, so both steps stay non-blocking.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- e:
	default:
	}
}

// Compile-time interface check.
var _ Subscription = (*subscription)(nil)
