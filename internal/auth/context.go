// Package auth carries the acting admin on the request context.
//
// Authentication happens upstream of this service; the gateway forwards the
// actor's role and tenant as request headers. This package is imported by
// both middleware and handler packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/catalogadmin/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey contextKey = "actor"

// Actor is the admin making the request.
type Actor struct {
	Role     domain.Role
	TenantID string // Empty for cross-tenant actors
}

// CanSeeAllTenants reports whether the actor may browse and assign every
// tenant's products.
func (a *Actor) CanSeeAllTenants() bool {
	return a != nil && a.Role.Elevated()
}

// GetActor retrieves the actor from the context.
//
// Returns nil if no actor was set.
//
// Usage:
//
//	actor := auth.GetActor(r.Context())
//	if actor == nil {
//	    // Handle anonymous request
//	}
func GetActor(ctx context.Context) *Actor {
	actor, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// GetActorFromRequest is a convenience wrapper around GetActor.
func GetActorFromRequest(r *http.Request) *Actor {
	return GetActor(r.Context())
}

// SetActor stores the actor in the context.
func SetActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
