// Package otel provides OpenTelemetry instrumentation for the event bus.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/event"
)

// InstrumentedBus decorates a bus with spans and counters. Publish
// produces a span carrying the event kind; publishes and subscribes
// are counted per kind.
type InstrumentedBus struct {
	inner      bus.Bus
	tracer     trace.Tracer
	published  metric.Int64Counter
	subscribes metric.Int64Counter
}

// NewInstrumentedBus wraps inner with the given tracer and meter.
func NewInstrumentedBus(inner bus.Bus, tracer trace.Tracer, meter metric.Meter) (*InstrumentedBus, error) {
	published, err := meter.Int64Counter("appcore.bus.published",
		metric.WithDescription("Number of events published to the bus"),
	)
	if err != nil {
		return nil, err
	}

	subscribes, err := meter.Int64Counter("appcore.bus.subscribes",
		metric.WithDescription("Number of bus subscriptions opened"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedBus{
		inner:      inner,
		tracer:     tracer,
		published:  published,
		subscribes: subscribes,
	}, nil
}

// Publish records a span and increments the publish counter, then
// forwards the event to the wrapped bus.
func (b *InstrumentedBus) Publish(e event.Event) {
	kind := string(e.EventKind())
	attrs := trace.WithAttributes(
		attribute.String("appcore.event_kind", kind),
	)

	ctx, span := b.tracer.Start(context.Background(), "bus.publish", attrs)
	defer span.End()

	b.inner.Publish(e)

	b.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("appcore.event_kind", kind),
	))
	span.SetStatus(codes.Ok, "")
}

// Subscribe counts the subscription and delegates to the wrapped bus.
func (b *InstrumentedBus) Subscribe() bus.Subscription {
	b.subscribes.Add(context.Background(), 1)
	return b.inner.Subscribe()
}

// SubscribeContext counts the subscription and delegates to the
// wrapped bus.
func (b *InstrumentedBus) SubscribeContext(ctx context.Context) bus.Subscription {
	b.subscribes.Add(ctx, 1)
	return b.inner.SubscribeContext(ctx)
}

var _ bus.Bus = (*InstrumentedBus)(nil)

// ObserveRegistry registers a gauge reporting the registry's current
// subscriber count. The returned registration unregisters the callback.
func ObserveRegistry(meter metric.Meter, reg *bus.Registry) (metric.Registration, error) {
	subscribers, err := meter.Int64ObservableGauge("appcore.bus.subscribers",
		metric.WithDescription("Current number of bus subscribers"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(subscribers, int64(reg.Len()))
		return nil
	}, subscribers)
}
