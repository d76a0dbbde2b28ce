package bus

import (
	"context"
	"testing"
	"time"

	"github.com/petal-labs/appcore/event"
)

func TestLive_SharedAcrossFacades(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	defer reg.Close()

	sender := Live(reg)
	receiver := Live(reg)

	sub := receiver.Subscribe()
	defer sub.Close()

	sender.Publish(event.Toast{Message: "hi"})

	select {
	case e := <-sub.Events():
		toast, ok := e.(event.Toast)
		if !ok {
			t.Fatalf("got %T, want event.Toast", e)
		}
		if toast.Message != "hi" {
			t.Errorf("got message %q, want %q", toast.Message, "hi")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestLive_NilRegistryBindsToShared(t *testing.T) {
	b := Live(nil).(*liveBus)
	if b.reg != Shared() {
		t.Error("Live(nil) should bind to the shared registry")
	}
}

func TestShared_ReturnsSameInstance(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared() must return the same registry on every call")
	}
}

func TestLive_NavigationThenToastScenario(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	defer reg.Close()

	b := Live(reg)

	s1 := b.Subscribe()
	defer s1.Close()

	b.Publish(event.Navigation{Route: "nav", ID: 7})

	select {
	case e := <-s1.Events():
		nav, ok := e.(event.Navigation)
		if !ok {
			t.Fatalf("got %T, want event.Navigation", e)
		}
		if nav.Route != "nav" || nav.ID != 7 {
			t.Errorf("got %+v, want {Route:nav ID:7}", nav)
		}
	case <-time.After(time.Second):
		t.Fatal("s1: timed out waiting for navigation event")
	}

	s2 := b.Subscribe()
	defer s2.Close()

	b.Publish(event.Toast{Message: "hi"})

	for name, sub := range map[string]Subscription{"s1": s1, "s2": s2} {
		select {
		case e := <-sub.Events():
			toast, ok := e.(event.Toast)
			if !ok {
				t.Fatalf("%s: got %T, want event.Toast", name, e)
			}
			if toast.Message != "hi" {
				t.Errorf("%s: got message %q, want %q", name, toast.Message, "hi")
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: timed out waiting for toast", name)
		}
	}

	// s1 must not re-receive the earlier navigation event.
	select {
	case e := <-s1.Events():
		t.Fatalf("s1 received unexpected event %v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeContext_CancelClosesSubscription(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	defer reg.Close()

	b := Live(reg)

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.SubscribeContext(ctx)

	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for closed channel")
	}

	// The registry entry must be gone so publish no longer wastes work.
	deadline := time.Now().Add(time.Second)
	for reg.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("registry still holds %d entries after cancellation", reg.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSubscribeContext_ExplicitCloseStillWorks(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	defer reg.Close()

	b := Live(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := b.SubscribeContext(ctx)
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if got := reg.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestNoop_PublishIsDiscarded(t *testing.T) {
	b := Noop()

	b.Publish(event.Toast{Message: "into the void"})

	// Subscribing after a publish yields an empty, already-closed sequence.
	sub := b.Subscribe()
	defer sub.Close()

	select {
	case e, ok := <-sub.Events():
		if ok {
			t.Fatalf("noop subscription delivered event %v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("expected immediately-closed channel")
	}
}

func TestNoop_SubscribeContext(t *testing.T) {
	b := Noop()

	sub := b.SubscribeContext(context.Background())
	defer sub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("noop subscription should be exhausted")
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
