package department

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// DepartmentHandler handles department and designation endpoints
type DepartmentHandler struct {
	departments *services.DepartmentService
	validator   *validation.Validator
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(departments *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{
		departments: departments,
		validator:   validation.NewValidator(),
	}
}

// CreateDepartmentRequest represents the request body for creating a department
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"required,oneof=Academic Non-Academic Support Infrastructure Creative"`
}

// CreateDesignationRequest represents the request body for creating a designation
type CreateDesignationRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	DepartmentID string `json:"departmentId" validate:"required"`
}

// ListDepartments handles GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *fiber.Ctx) error {
	depts, err := h.departments.ListDepartments(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, depts)
}

// CreateDepartment handles POST /api/v1/departments
func (h *DepartmentHandler) CreateDepartment(c *fiber.Ctx) error {
	var req CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.Describe(err))
	}

	dept, err := h.departments.CreateDepartment(c.UserContext(), validation.SanitizeString(req.Name), model.DepartmentType(req.Type))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, dept)
}

// DeleteDepartment handles DELETE /api/v1/departments/:id
func (h *DepartmentHandler) DeleteDepartment(c *fiber.Ctx) error {
	if err := h.departments.DeleteDepartment(c.UserContext(), c.Params("id")); err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Department deleted successfully", nil)
}

// ListDesignations handles GET /api/v1/designations?department_id=
func (h *DepartmentHandler) ListDesignations(c *fiber.Ctx) error {
	designations, err := h.departments.ListDesignations(c.UserContext(), c.Query("department_id"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, designations)
}

// CreateDesignation handles POST /api/v1/designations
func (h *DepartmentHandler) CreateDesignation(c *fiber.Ctx) error {
	var req CreateDesignationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.Describe(err))
	}

	d, err := h.departments.CreateDesignation(c.UserContext(), validation.SanitizeString(req.Name), req.DepartmentID)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, d)
}

// DeleteDesignation handles DELETE /api/v1/designations/:id
func (h *DepartmentHandler) DeleteDesignation(c *fiber.Ctx) error {
	if err := h.departments.DeleteDesignation(c.UserContext(), c.Params("id")); err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Designation deleted successfully", nil)
}
