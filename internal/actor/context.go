// Package actor carries the authenticated caller's role and doctor id
// through request context.
package actor

import (
	"context"

	"github.com/clinicflow/clinicflow/internal/appointments"
)

type ctxKey string

const actorKey ctxKey = "clinicflow.actor"

// Actor identifies who is making the request.
type Actor struct {
	Role     appointments.Role
	DoctorID string
	// DoctorName is the provider name appointments are keyed by.
	DoctorName string
}

// WithActor stores the actor in context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// FromContext extracts the actor if present.
func FromContext(ctx context.Context) (Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return Actor{}, false
	}
	a, ok := val.(Actor)
	return a, ok && a.Role != ""
}
