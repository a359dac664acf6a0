package playback

import (
	"context"
	"errors"
)

// ErrNoCoordinator is returned when a context carries no Coordinator.
var ErrNoCoordinator = errors.New("playback coordinator requested outside of a provider")

type ctxKey struct{}

// NewContext returns a copy of ctx that provides c to everything below it.
func NewContext(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the Coordinator provided by ctx.
func FromContext(ctx context.Context) (*Coordinator, error) {
	c, ok := ctx.Value(ctxKey{}).(*Coordinator)
	if !ok || c == nil {
		return nil, ErrNoCoordinator
	}
	return c, nil
}

// MustFromContext is like FromContext but panics without a provider.
func MustFromContext(ctx context.Context) *Coordinator {
	c, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return c
}
