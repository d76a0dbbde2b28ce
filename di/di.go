// Package di provides a small keyed dependency container with live/test
// value switching.
//
// A Container maps logical keys to bindings, where each binding carries a
// live value and an optional test value. The mode chosen at construction
// decides which side a lookup resolves to; in test mode a binding without a
// test value falls back to its live value. Containers are passed explicitly
// down call chains or attached to a context (see ContextWith), never looked
// up ambiently.
//
// The error paths avoid fmt.Errorf so missing-dependency checks stay cheap
// when used for control flow.
package di

import (
	"reflect"
	"strconv"
	"sync"
)

// Key identifies a binding in a Container.
//
// Keys are typically defined as package-level constants to avoid typos.
type Key string

// Mode selects which side of a binding lookups resolve to.
type Mode int

const (
	// ModeLive resolves live values.
	ModeLive Mode = iota

	// ModeTest resolves test values, falling back to the live value when a
	// binding has no test value.
	ModeTest
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeTest:
		return "test"
	default:
		return "unknown"
	}
}

// Binding pairs a live value with an optional test value.
type Binding struct {
	Live any
	Test any
}

// DuplicateKeyError is returned when Register is called with a key that is
// already bound.
type DuplicateKeyError struct{ Key Key }

// Error implements the error interface.
func (e DuplicateKeyError) Error() string {
	return "di: duplicate key " + strconv.Quote(string(e.Key))
}

// MissingError is returned when a key is not bound or resolves to nil.
type MissingError struct{ Key Key }

// Error implements the error interface.
func (e MissingError) Error() string {
	return "di: key " + strconv.Quote(string(e.Key)) + " missing"
}

// WrongTypeError is returned when a key is bound but the resolved value is
// not of the requested type.
type WrongTypeError struct {
	Key Key

	// GotType is reflect.TypeOf(value).String() for the resolved value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return "di: key " + strconv.Quote(string(e.Key)) + " has wrong type (" + e.GotType + ")"
}

// Container is a keyed dependency container. The zero value is not usable;
// construct with New.
type Container struct {
	mode Mode

	mu       sync.RWMutex
	bindings map[Key]Binding
}

// New creates an empty container resolving in the given mode.
func New(mode Mode) *Container {
	return &Container{
		mode:     mode,
		bindings: make(map[Key]Binding),
	}
}

// Mode returns the container's resolution mode.
func (c *Container) Mode() Mode { return c.mode }

// Register binds the key. Re-binding an existing key is refused with a
// DuplicateKeyError; use Clone to build a derived container instead.
func (c *Container) Register(key Key, b Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.bindings[key]; exists {
		return DuplicateKeyError{Key: key}
	}
	c.bindings[key] = b
	return nil
}

// Resolve returns the value the key resolves to under the container's mode.
// ok is false when the key is unbound or the selected side is nil.
func (c *Container) Resolve(key Key) (any, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	b, exists := c.bindings[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.mode == ModeTest && b.Test != nil {
		return b.Test, true
	}
	return b.Live, b.Live != nil
}

// Has reports whether the key resolves to a value under the container's mode.
func (c *Container) Has(key Key) bool {
	_, ok := c.Resolve(key)
	return ok
}

// Len returns the number of bindings.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bindings)
}

// Clone returns a copy of the container with the same mode. Bindings are
// copied into a new map so further registration does not mutate the
// original; bound values are shared.
func (c *Container) Clone() *Container {
	return c.WithMode(c.mode)
}

// WithMode returns a copy of the container resolving in the given mode.
func (c *Container) WithMode(mode Mode) *Container {
	cp := New(mode)
	if c == nil {
		return cp
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, b := range c.bindings {
		cp.bindings[k] = b
	}
	return cp
}

// Get returns the resolved value typed as T.
//
// ok is false if the key is missing or the resolved value is not a T.
func Get[T any](c *Container, key Key) (T, bool) {
	var zero T
	raw, ok := c.Resolve(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// TryGet returns the resolved value typed as T.
//
// It returns:
//   - MissingError if the key is not bound or resolves to nil
//   - WrongTypeError if the key resolves to a value that is not a T
func TryGet[T any](c *Container, key Key) (T, error) {
	var zero T
	raw, ok := c.Resolve(key)
	if !ok {
		return zero, MissingError{Key: key}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{
			Key:     key,
			GotType: reflect.TypeOf(raw).String(),
		}
	}
	return v, nil
}

// MustGet returns the resolved value typed as T or panics.
func MustGet[T any](c *Container, key Key) T {
	v, err := TryGet[T](c, key)
	if err != nil {
		panic(err)
	}
	return v
}
