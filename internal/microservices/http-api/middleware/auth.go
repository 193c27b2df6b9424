package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"storehub/internal/microservices/http-api/policy"
	"storehub/internal/microservices/http-api/service"
	"storehub/internal/shared"
)

// Context keys set by AuthMiddleware.
const (
	ContextActor  = "actor"
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextEmail  = "email"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*shared.AuthClaims, error)
}

// AuthMiddleware is a Gin middleware for JWT authentication of API requests.
// It expects "Authorization: Bearer <token>" and stores the caller as an Actor.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, service.KindUnauthorized, "missing authorization header")
			return
		}

		// 0 is Bearer, 1 is the token
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, service.KindUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			abort(c, service.KindUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextActor, claims.Actor())
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller.
func ActorFrom(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}

// RequireRole lets the request through only when the caller has one of roles.
func RequireRole(roles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, service.KindUnauthorized, "authentication required")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, service.KindForbidden, "insufficient permissions")
	}
}

// RequirePermission gates a route on the roles that can ever perform op.
// Ownership checks still happen in the service once the resource is loaded.
func RequirePermission(op policy.Operation) gin.HandlerFunc {
	return RequireRole(policy.RolesFor(op)...)
}

// RequireAdmin is a convenience function for requiring admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(shared.RoleAdmin)
}

func abort(c *gin.Context, kind service.Kind, message string) {
	c.AbortWithStatusJSON(kind.Status(), gin.H{"code": kind, "message": message})
}
