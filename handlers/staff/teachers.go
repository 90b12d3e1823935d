package staff

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// TeacherRequest represents the request body for saving a teacher profile
type TeacherRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	EmployeeID     string `json:"employeeId" validate:"omitempty,max=50"`
	Phone          string `json:"phone" validate:"omitempty,max=20"`
	Department     string `json:"department" validate:"omitempty,max=100"`
	Specialization string `json:"specialization" validate:"omitempty,max=100"`
	JoiningDate    int64  `json:"joiningDate" validate:"omitempty,gt=0"`
}

// AssignClassRequest represents the request body for assigning a class
type AssignClassRequest struct {
	DegreeID   string `json:"degreeId" validate:"required"`
	StreamID   string `json:"streamId" validate:"required"`
	BatchID    string `json:"batchId" validate:"required"`
	YearID     string `json:"yearId" validate:"required"`
	SemesterID string `json:"semesterId" validate:"required"`
	SectionID  string `json:"sectionId" validate:"required"`
	Subject    string `json:"subject" validate:"omitempty,max=100"`
}

// ListTeachers handles GET /api/v1/teachers
func (h *StaffHandler) ListTeachers(c *fiber.Ctx) error {
	teachers, err := h.staff.ListTeachers(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, teachers)
}

// SaveTeacher handles PUT /api/v1/teachers/:uid
func (h *StaffHandler) SaveTeacher(c *fiber.Ctx) error {
	var req TeacherRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	t, err := h.staff.UpsertTeacher(c.UserContext(), c.Params("uid"), model.Teacher{
		Name:           validation.SanitizeString(req.Name),
		Email:          req.Email,
		EmployeeID:     req.EmployeeID,
		Phone:          req.Phone,
		Department:     validation.SanitizeString(req.Department),
		Specialization: validation.SanitizeString(req.Specialization),
		JoiningDate:    req.JoiningDate,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Teacher saved successfully", t)
}

// AssignClass handles POST /api/v1/teachers/:uid/classes
func (h *StaffHandler) AssignClass(c *fiber.Ctx) error {
	var req AssignClassRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	t, err := h.staff.AssignClass(c.UserContext(), c.Params("uid"), model.ClassAssignment{
		DegreeID:   req.DegreeID,
		StreamID:   req.StreamID,
		BatchID:    req.BatchID,
		YearID:     req.YearID,
		SemesterID: req.SemesterID,
		SectionID:  req.SectionID,
		Subject:    validation.SanitizeString(req.Subject),
	})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Class assigned successfully", t)
}
