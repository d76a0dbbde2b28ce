// Package event defines the event model shared by the appcore bus and its
// consumers. Events are small immutable values discriminated by a Kind tag;
// applications extend the set by defining their own types that implement
// Event. The bus never inspects events beyond fan-out, so any value that is
// safe to share across goroutines is a valid event.
package event

import "time"

// Kind identifies the type of an event. Dispatchers switch on Kind rather
// than on the concrete Go type, so external packages can add kinds without
// touching this package.
type Kind string

const (
	// KindNavigation is emitted when the application requests a route change.
	KindNavigation Kind = "navigation"

	// KindToast is emitted when a transient user-facing message is raised.
	KindToast Kind = "toast"

	// KindConfigReloaded is emitted after a configuration file reload succeeds.
	KindConfigReloaded Kind = "config.reloaded"

	// KindTick is emitted by the scheduler when a cron entry fires.
	KindTick Kind = "tick"
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// Event is a value distributed through the bus. Implementations must be
// immutable once published: the same value is handed to every subscriber
// concurrently.
type Event interface {
	// EventKind returns the discriminant tag for this event.
	EventKind() Kind
}

// Navigation requests a transition to a route, optionally targeting an
// entity by ID.
type Navigation struct {
	Route string
	ID    int64
}

// EventKind returns KindNavigation.
func (Navigation) EventKind() Kind { return KindNavigation }

// Toast carries a transient user-facing message.
type Toast struct {
	Message string
}

// EventKind returns KindToast.
func (Toast) EventKind() Kind { return KindToast }

// ConfigReloaded announces that the configuration at Path was reloaded.
type ConfigReloaded struct {
	Path string
}

// EventKind returns KindConfigReloaded.
func (ConfigReloaded) EventKind() Kind { return KindConfigReloaded }

// Tick announces that the named schedule entry fired at At.
type Tick struct {
	Name string
	At   time.Time
}

// EventKind returns KindTick.
func (Tick) EventKind() Kind { return KindTick }
