// Package policy decides which role may perform which operation on which record.
// It is pure: callers look up resource ownership first and pass it in.
package policy

import "storehub/internal/shared"

type Operation string

const (
	// admin only
	ViewDashboard      Operation = "dashboard:view"
	ListUsers          Operation = "users:list"
	ViewUser           Operation = "users:view"
	CreateUser         Operation = "users:create"
	UpdateUser         Operation = "users:update"
	DeleteUser         Operation = "users:delete"
	ViewUserStats      Operation = "users:stats"
	CreateStore        Operation = "stores:create"
	DeleteStore        Operation = "stores:delete"
	ReassignStoreOwner Operation = "stores:reassign"
	ViewRatingStats    Operation = "ratings:stats"

	// resource scoped
	UpdateStore  Operation = "stores:update"
	SubmitRating Operation = "ratings:submit"
	DeleteRating Operation = "ratings:delete"
	ViewOwnStore Operation = "stores:own"

	// any authenticated role
	BrowseStores  Operation = "stores:browse"
	ViewRatings   Operation = "ratings:browse"
	ViewOwnRating Operation = "ratings:own"
)

var adminOnly = map[Operation]bool{
	ViewDashboard:      true,
	ListUsers:          true,
	ViewUser:           true,
	CreateUser:         true,
	UpdateUser:         true,
	DeleteUser:         true,
	ViewUserStats:      true,
	CreateStore:        true,
	DeleteStore:        true,
	ReassignStoreOwner: true,
	ViewRatingStats:    true,
}

// Allowed reports whether actor may perform op. ownerID is the owning user of the
// resource (rating author, store owner, deletion target) or nil when there is none.
func Allowed(actor shared.Actor, op Operation, ownerID *uint) bool {
	if !actor.Role.Valid() || actor.ID == 0 {
		return false
	}
	if adminOnly[op] {
		if op == DeleteUser && ownerID != nil && *ownerID == actor.ID {
			return false
		}
		return actor.Role == shared.RoleAdmin
	}

	switch op {
	case BrowseStores, ViewRatings, ViewOwnRating:
		return true
	case SubmitRating:
		return actor.Role == shared.RoleUser
	case DeleteRating:
		return actor.Role == shared.RoleAdmin || owns(actor, ownerID)
	case UpdateStore:
		return actor.Role == shared.RoleAdmin ||
			(actor.Role == shared.RoleStoreOwner && owns(actor, ownerID))
	case ViewOwnStore:
		return actor.Role == shared.RoleStoreOwner
	}
	return false
}

// RolesFor returns the roles that can ever be granted op, for route-level gating
// before the resource owner is known.
func RolesFor(op Operation) []shared.Role {
	var out []shared.Role
	for _, r := range shared.Roles {
		probe := shared.Actor{ID: ^uint(0), Role: r}
		owner := probe.ID
		if Allowed(probe, op, &owner) || Allowed(probe, op, nil) {
			out = append(out, r)
		}
	}
	return out
}

func owns(actor shared.Actor, ownerID *uint) bool {
	return ownerID != nil && *ownerID == actor.ID
}
