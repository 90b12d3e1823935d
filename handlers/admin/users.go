package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/middleware"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// UserHandler manages role records
type UserHandler struct {
	roles     *services.RoleService
	validator *validation.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(roles *services.RoleService) *UserHandler {
	return &UserHandler{roles: roles, validator: validation.NewValidator()}
}

// AssignRoleRequest represents the request body for changing a user's role
type AssignRoleRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin teacher student"`
	Email    string `json:"email" validate:"omitempty,email"`
	Disabled *bool  `json:"disabled"`
}

// AssignRole handles PUT /api/v1/admin/users/:uid/role
func (h *UserHandler) AssignRole(c *fiber.Ctx) error {
	uid := c.Params("uid")

	var req AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.Describe(err))
	}

	// Admins cannot lock themselves out
	if identity, ok := middleware.GetIdentity(c); ok && identity.UID == uid {
		if model.Role(req.Role) != model.RoleAdmin || (req.Disabled != nil && *req.Disabled) {
			return response.Forbidden(c, "You cannot remove your own admin access")
		}
	}

	record, err := h.roles.UpdateRecord(c.UserContext(), uid, services.RoleUpdate{
		Email:    req.Email,
		Role:     model.Role(req.Role),
		Disabled: req.Disabled,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Role updated successfully", record)
}

// GetUser handles GET /api/v1/admin/users/:uid
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	record, err := h.roles.Record(c.UserContext(), c.Params("uid"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	if record == nil {
		return response.NotFound(c, "No role record for this user")
	}
	return response.Success(c, record)
}
