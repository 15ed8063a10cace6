package shared

import "context"

// Role enumerates caller roles recognised by the core.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleSeller     Role = "SELLER"
	// RoleSystem is the fixed identity used by the storefront intake adapter.
	RoleSystem Role = "SYSTEM"
)

// Actor is the resolved caller identity handed to every mutating operation.
// The core trusts it; computing it is the auth boundary's job.
type Actor struct {
	ID   int64
	Name string
	Role Role
	// LocationIDs is the set of locations the actor may operate on.
	// An empty set is the "no restriction" sentinel.
	LocationIDs []int64
}

// HasRole reports whether the actor holds one of the given roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanAccessLocation reports whether the actor may operate on a location.
func (a Actor) CanAccessLocation(locationID int64) bool {
	if len(a.LocationIDs) == 0 {
		return true
	}
	for _, id := range a.LocationIDs {
		if id == locationID {
			return true
		}
	}
	return false
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The second return is
// false when no actor was resolved for the request.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
