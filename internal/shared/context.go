package shared

import (
	"context"

	"github.com/google/uuid"
)

type schoolContextKey struct{}

type actorContextKey struct{}

// ContextWithSchool stores the resolved tenant in context.
func ContextWithSchool(ctx context.Context, schoolID uuid.UUID) context.Context {
	return context.WithValue(ctx, schoolContextKey{}, schoolID)
}

// SchoolFromContext extracts the tenant from context.
func SchoolFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(schoolContextKey{}).(uuid.UUID)
	return id
}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext extracts the acting user from context.
func ActorFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(actorContextKey{}).(uuid.UUID)
	return id
}
