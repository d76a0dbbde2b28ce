package di

import "context"

// containerKey is an unexported type used as the context key for Container.
// Using an unexported struct type prevents collisions with keys from other
// packages.
type containerKey struct{}

// ContextWith attaches a container to the context.
func ContextWith(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, containerKey{}, c)
}

// FromContext retrieves the container from the context.
// Returns an empty live-mode container if none is set, so lookups on the
// result are safe and simply resolve to nothing.
func FromContext(ctx context.Context) *Container {
	if c, ok := ctx.Value(containerKey{}).(*Container); ok && c != nil {
		return c
	}
	return New(ModeLive)
}
