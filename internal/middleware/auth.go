package middleware

import (
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/access"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	ExpiresAtKey = "token_expires_at"
)

// AccessTokenValidator checks bearer tokens. *services.JWTService
// implements it.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

func Auth(tokens AccessTokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		role := claims.Role
		if !role.IsValid() {
			role = models.RoleEmployee
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, role)
		if claims.ExpiresAt != nil {
			c.Set(ExpiresAtKey, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is
// one of roles. It must run after Auth.
func RequireRoles(roles ...models.Role) drift.HandlerFunc {
	return func(c *drift.Context) {
		if !access.Allowed(GetUserRole(c), roles) {
			c.Forbidden("insufficient role")
			return
		}
		c.Next()
	}
}

// RequireArea gates a named dashboard area with its role set.
func RequireArea(area string) drift.HandlerFunc {
	return RequireRoles(access.RolesFor(area)...)
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

// GetUserRole returns the caller's role, or "" outside Auth.
func GetUserRole(c *drift.Context) models.Role {
	if role, ok := c.Get(UserRoleKey); ok {
		if r, ok := role.(models.Role); ok {
			return r
		}
	}
	return ""
}

// GetExpiresAt returns when the caller's access token lapses.
func GetExpiresAt(c *drift.Context) time.Time {
	if v, ok := c.Get(ExpiresAtKey); ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}
