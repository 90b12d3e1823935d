package staff

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// StaffHandler handles employee and teacher endpoints
type StaffHandler struct {
	staff     *services.StaffService
	validator *validation.Validator
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staff *services.StaffService) *StaffHandler {
	return &StaffHandler{
		staff:     staff,
		validator: validation.NewValidator(),
	}
}

// EmployeeRequest represents the request body for creating or editing an employee
type EmployeeRequest struct {
	FullName      string  `json:"fullName" validate:"required,max=100"`
	EmployeeID    string  `json:"employeeId" validate:"required,max=50"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Phone         string  `json:"phone" validate:"omitempty,max=20"`
	DepartmentID  string  `json:"departmentId"`
	DesignationID string  `json:"designationId"`
	DateOfJoining int64   `json:"dateOfJoining" validate:"omitempty,gt=0"`
	Status        string  `json:"status" validate:"omitempty,oneof=Active On-Leave Resigned Terminated"`
	SalaryType    string  `json:"salaryType" validate:"omitempty,oneof=Fixed Hourly Incentive-Based"`
	SalaryAmount  float64 `json:"salaryAmount" validate:"gte=0"`
}

func (r EmployeeRequest) employee() model.Employee {
	return model.Employee{
		FullName:      validation.SanitizeString(r.FullName),
		EmployeeID:    validation.SanitizeString(r.EmployeeID),
		Email:         r.Email,
		Phone:         r.Phone,
		DepartmentID:  r.DepartmentID,
		DesignationID: r.DesignationID,
		DateOfJoining: r.DateOfJoining,
		Status:        model.EmployeeStatus(r.Status),
		SalaryType:    model.SalaryType(r.SalaryType),
		SalaryAmount:  r.SalaryAmount,
	}
}

func (h *StaffHandler) parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return false, response.ValidationError(c, validation.Describe(err))
	}
	return true, nil
}

// ListEmployees handles GET /api/v1/employees?department_id=
func (h *StaffHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.staff.ListEmployees(c.UserContext(), c.Query("department_id"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, employees)
}

// CreateEmployee handles POST /api/v1/employees
func (h *StaffHandler) CreateEmployee(c *fiber.Ctx) error {
	var req EmployeeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	e, err := h.staff.CreateEmployee(c.UserContext(), req.employee())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, e)
}

// UpdateEmployee handles PUT /api/v1/employees/:id
func (h *StaffHandler) UpdateEmployee(c *fiber.Ctx) error {
	var req EmployeeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	e, err := h.staff.UpdateEmployee(c.UserContext(), c.Params("id"), req.employee())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Employee updated successfully", e)
}

// DeleteEmployee handles DELETE /api/v1/employees/:id
func (h *StaffHandler) DeleteEmployee(c *fiber.Ctx) error {
	if err := h.staff.DeleteEmployee(c.UserContext(), c.Params("id")); err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Employee deleted successfully", nil)
}
