package auth

import "context"

// Role names recognized by the engine.
const (
	RoleStaff    = "staff"
	RoleLawyer   = "lawyer"
	RoleArranger = "arranger"
)

// Caller is the resolved identity for one request, treated as authoritative
// for which invoices and commissions the caller may mutate.
type Caller struct {
	UserID          uint
	Roles           []string
	ScopedEntityIDs []uint
}

// HasRole reports whether the caller carries the given role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAssignedTo reports whether the caller is scoped to a specific deal.
// Staff are assigned to everything.
func (c Caller) IsAssignedTo(dealID uint) bool {
	if c.HasRole(RoleStaff) {
		return true
	}
	for _, id := range c.ScopedEntityIDs {
		if id == dealID {
			return true
		}
	}
	return false
}

type ctxKey string

const ctxCaller ctxKey = "caller"

// WithCaller stores the resolved caller on the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxCaller, c)
}

// CallerFrom returns the caller resolved by the middleware, if any.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxCaller).(Caller)
	return c, ok
}
