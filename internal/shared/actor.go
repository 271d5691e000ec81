// Package shared holds cross-cutting pieces: the authenticated actor,
// the idempotency store and the audit trail.
package shared

import "errors"

// Role is the coarse-grained role supplied by the identity layer.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
	RoleClient   Role = "client"
)

// Actor is the authenticated identity attached to every request. The
// service trusts the upstream identity layer and performs no
// authentication of its own.
type Actor struct {
	ID   int64
	Role Role
}

// ErrNoActor indicates a request arrived without identity headers.
var ErrNoActor = errors.New("no actor in request context")

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDelivery, RoleClient:
		return true
	}
	return false
}

// CanManageStatus reports whether the actor may drive the administrative
// branch of the order state machine (in_process, completed, cancelled).
func (a Actor) CanManageStatus() bool {
	return a.Role == RoleAdmin
}

// CanDeliver reports whether the actor may record deliveries and drive the
// route branch (ready_for_route, in_route, delivered).
func (a Actor) CanDeliver() bool {
	return a.Role == RoleAdmin || a.Role == RoleDelivery
}
