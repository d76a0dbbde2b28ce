package bus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/petal-labs/appcore/event"
)

// DefaultBuffer is the per-subscriber buffer capacity used when
// RegistryConfig leaves Buffer unset.
const DefaultBuffer = 10

// OverflowPolicy decides what happens when an event is published to a
// subscriber whose buffer is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest buffered event to make room for the new
	// one. Subscribers that fall behind lose the oldest data, not the newest.
	DropOldest OverflowPolicy = iota

	// DropNewest discards the incoming event and keeps the buffer as is.
	DropNewest
)

// String returns the policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop_oldest"
	case DropNewest:
		return "drop_newest"
	default:
		return "unknown"
	}
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Buffer is the per-subscriber buffer capacity (default: 10).
	Buffer int

	// Overflow is the policy applied when a subscriber's buffer is full
	// (default: DropOldest).
	Overflow OverflowPolicy
}

// Registry holds the live subscriber set and performs fan-out. It is the
// sole owner of all subscription channels; facades and consumers only hold
// handles through which they read or trigger cancellation.
type Registry struct {
	mu       sync.RWMutex
	subs     map[string]*subscription
	buffer   int
	overflow OverflowPolicy
}

// NewRegistry creates a registry with the given configuration.
func NewRegistry(cfg RegistryConfig) *Registry {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Registry{
		subs:     make(map[string]*subscription),
		buffer:   buffer,
		overflow: cfg.Overflow,
	}
}

var (
	shared     *Registry
	sharedOnce sync.Once
)

// Shared returns the process-wide registry, initialized lazily on first
// access with default configuration. Every Live facade bound to it sees the
// same subscriber set.
func Shared() *Registry {
	sharedOnce.Do(func() {
		shared = NewRegistry(RegistryConfig{})
	})
	return shared
}

// register allocates a fresh identifier and a bounded channel, inserts the
// subscription into the mapping, and returns it. It always succeeds.
func (r *Registry) register() *subscription {
	sub := newSubscription(r, uuid.NewString(), r.buffer, r.overflow)

	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()

	return sub
}

// unregister removes the mapping entry for id. It is idempotent: removing
// an unknown or already-removed id is a no-op.
func (r *Registry) unregister(id string) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

// Publish enqueues the event into every currently-registered subscription.
// Subscriptions at capacity apply the registry's overflow policy; an enqueue
// into a concurrently-closed subscription is a silent no-op. Publishing to
// zero subscribers is a silent no-op.
func (r *Registry) Publish(e event.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subs {
		sub.send(e)
	}
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close tears the registry down: every registered subscription is closed
// and removed. Further publishes deliver to nobody; further registers are
// still permitted.
func (r *Registry) Close() error {
	r.mu.Lock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[string]*subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	return nil
}

// Compile-time interface check.
var _ Publisher = (*Registry)(nil)
