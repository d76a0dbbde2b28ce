package bus

import (
	"sync"
	"time"

	"github.com/petal-labs/appcore/event"
)

// CoalesceKeyFunc decides whether an event is coalescable and under which
// key. Events reporting ok=false pass through immediately.
type CoalesceKeyFunc func(e event.Event) (key string, ok bool)

// CoalescerConfig controls the behavior of Coalescer.
type CoalescerConfig struct {
	// Interval is how often to flush coalesced events.
	// Default: 100ms
	Interval time.Duration

	// KeyFunc selects coalescable events. Required.
	KeyFunc CoalesceKeyFunc
}

// Coalescer wraps a Publisher and coalesces high-frequency events. Events
// the key function claims are coalesced per key: only the latest event for
// each key is kept within each interval. A background ticker flushes
// coalesced events at the configured interval. All other events pass through
// immediately.
type Coalescer struct {
	next     Publisher
	keyFunc  CoalesceKeyFunc
	interval time.Duration

	mu      sync.Mutex
	pending map[string]event.Event // key -> latest event
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCoalescer creates a Coalescer publishing into next.
func NewCoalescer(next Publisher, cfg CoalescerConfig) *Coalescer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	c := &Coalescer{
		next:     next,
		keyFunc:  cfg.KeyFunc,
		interval: interval,
		pending:  make(map[string]event.Event),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go c.run()

	return c
}

// Publish sends an event through the coalescer. Events without a coalesce
// key pass through immediately to the wrapped publisher; keyed events
// replace any pending event under the same key and are flushed at the
// configured interval.
func (c *Coalescer) Publish(e event.Event) {
	key, ok := c.keyFunc(e)
	if !ok {
		c.next.Publish(e)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.pending[key] = e
}

// Close flushes any pending events and stops the background ticker.
// It is safe to call Close multiple times.
func (c *Coalescer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
	<-c.doneCh
}

// run is the background goroutine that periodically flushes pending events.
func (c *Coalescer) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stopCh:
			// Flush any remaining pending events before exiting.
			c.flush()
			return
		}
	}
}

// flush publishes all pending coalesced events and clears the pending map.
func (c *Coalescer) flush() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}

	// Swap out the pending map so the lock is released during publishing.
	toFlush := c.pending
	c.pending = make(map[string]event.Event)
	c.mu.Unlock()

	for _, e := range toFlush {
		c.next.Publish(e)
	}
}

// Compile-time interface check.
var _ Publisher = (*Coalescer)(nil)
