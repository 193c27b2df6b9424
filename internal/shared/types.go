package shared

// shared types across the application
// 1st: roles recognised by the access policy
// 2nd: the authenticated actor resolved from a JWT
// 3rd: auth claims carried inside access tokens

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleStoreOwner Role = "store_owner"
)

// Roles lists every valid role in a stable order (used by stats and validation).
var Roles = []Role{RoleAdmin, RoleUser, RoleStoreOwner}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleStoreOwner:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Actor is the caller of an operation, as established by the auth middleware.
type Actor struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type AuthClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Actor converts the claims into the actor used by services.
func (c AuthClaims) Actor() Actor {
	return Actor{ID: c.UserID, Role: c.Role}
}
