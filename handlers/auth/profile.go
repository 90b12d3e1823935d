package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/utils/middleware"
	"github.com/sahilchouksey/campus-api/utils/response"
)

// ProfileResponse is the signed-in caller as the API sees them
type ProfileResponse struct {
	UID   string     `json:"uid"`
	Email string     `json:"email,omitempty"`
	Role  model.Role `json:"role"`
}

// GetProfile handles GET /api/v1/auth/me
func GetProfile(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	role, _ := middleware.GetUserRole(c)

	return response.Success(c, ProfileResponse{
		UID:   identity.UID,
		Email: identity.Email,
		Role:  role,
	})
}
