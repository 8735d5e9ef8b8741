package middleware

import (
	"context"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
)

type contextKey string

const ctxActor contextKey = "actor"

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// ActorFromContext returns the actor seeded by the auth middleware. The zero
// Actor reports Known() == false, so services reject the request downstream.
func ActorFromContext(ctx context.Context) auth.Actor {
	if ctx == nil {
		return auth.Actor{}
	}
	if actor, ok := ctx.Value(ctxActor).(auth.Actor); ok {
		return actor
	}
	return auth.Actor{}
}
