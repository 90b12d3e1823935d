package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/utils/auth"
	"github.com/sahilchouksey/campus-api/utils/response"
	"go.uber.org/zap"
)

const (
	localIdentity = "identity"
	localRole     = "user_role"
)

// RoleResolver looks up the role of a verified identity
type RoleResolver interface {
	Resolve(ctx context.Context, identity model.Identity) (model.Role, error)
}

// AuthMiddleware verifies bearer tokens and resolves the caller's role
type AuthMiddleware struct {
	verifier auth.Verifier
	roles    RoleResolver
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier auth.Verifier, roles RoleResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, roles: roles, logger: logger}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Required is middleware that requires a valid token and an enabled account
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		token, ok := bearerToken(c)
		if !ok {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		identity, err := m.verifier.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		role, err := m.roles.Resolve(c.UserContext(), identity)
		if err != nil {
			m.logger.Error("failed to resolve role", zap.String("uid", identity.UID), zap.Error(err))
			return response.InternalServerError(c, "Failed to load user role")
		}
		if role == "" {
			return response.Forbidden(c, "Account is disabled")
		}

		c.Locals(localIdentity, identity)
		c.Locals(localRole, role)

		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given roles. It must
// run after Required.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin is middleware that requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// GetIdentity extracts the verified identity from context
func GetIdentity(c *fiber.Ctx) (model.Identity, bool) {
	identity, ok := c.Locals(localIdentity).(model.Identity)
	return identity, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (model.Role, bool) {
	role, ok := c.Locals(localRole).(model.Role)
	return role, ok
}
