// Package bus provides the appcore event bus: a fan-out distributor with a
// bounded, independently-buffered queue per subscriber. Publishers never
// block and receive no delivery feedback; slow subscribers lose data
// according to the registry's overflow policy instead of exerting
// back-pressure.
package bus

import (
	"context"

	"github.com/petal-labs/appcore/event"
)

// Publisher is the send-only half of a bus.
type Publisher interface {
	// Publish fans an event out to all current subscribers. It is
	// fire-and-forget: it never blocks and never reports delivery.
	Publish(e event.Event)
}

// Bus is the public surface of the event bus.
type Bus interface {
	Publisher

	// Subscribe registers a new subscriber.
	// Returns a Subscription that must be closed when done.
	Subscribe() Subscription

	// SubscribeContext registers a new subscriber whose subscription is
	// closed automatically when ctx is cancelled.
	SubscribeContext(ctx context.Context) Subscription
}

// Subscription receives events published after it was created.
type Subscription interface {
	// Events returns the subscription's channel. It is closed when the
	// subscription terminates.
	Events() <-chan event.Event

	// Close unsubscribes and releases resources. Safe to call multiple
	// times and concurrently with an in-flight publish.
	Close() error
}

// liveBus is a facade over a Registry. Every liveBus sharing a registry
// sees the same subscriber set, so an event published through one facade
// reaches subscribers created through any other.
type liveBus struct {
	reg *Registry
}

// Live returns a Bus backed by the given registry. A nil registry binds to
// the process-wide shared registry.
func Live(reg *Registry) Bus {
	if reg == nil {
		reg = Shared()
	}
	return &liveBus{reg: reg}
}

func (b *liveBus) Publish(e event.Event) {
	b.reg.Publish(e)
}

func (b *liveBus) Subscribe() Subscription {
	return b.reg.register()
}

func (b *liveBus) SubscribeContext(ctx context.Context) Subscription {
	sub := b.reg.register()
	if ctx.Done() == nil {
		return sub
	}
	stop := context.AfterFunc(ctx, func() {
		_ = sub.Close()
	})
	return &ctxSubscription{Subscription: sub, stop: stop}
}

// ctxSubscription detaches its context callback on explicit Close.
type ctxSubscription struct {
	Subscription
	stop func() bool
}

func (s *ctxSubscription) Close() error {
	s.stop()
	return s.Subscription.Close()
}

// noopBus delivers nothing and discards everything. It is used when running
// outside a real application context (tests, previews) to avoid leaking
// events through the shared registry.
type noopBus struct{}

// Noop returns a Bus whose Publish is a discard and whose subscriptions are
// immediately exhausted.
func Noop() Bus {
	return noopBus{}
}

func (noopBus) Publish(event.Event) {}

func (noopBus) Subscribe() Subscription {
	return newClosedSubscription()
}

func (noopBus) SubscribeContext(context.Context) Subscription {
	return newClosedSubscription()
}

// closedSubscription yields an already-closed, empty channel.
type closedSubscription struct {
	ch chan event.Event
}

func newClosedSubscription() *closedSubscription {
	ch := make(chan event.Event)
	close(ch)
	return &closedSubscription{ch: ch}
}

func (s *closedSubscription) Events() <-chan event.Event { return s.ch }

func (s *closedSubscription) Close() error { return nil }

// Compile-time interface checks.
var _ Bus = (*liveBus)(nil)
var _ Bus = noopBus{}
var _ Subscription = (*ctxSubscription)(nil)
var _ Subscription = (*closedSubscription)(nil)
