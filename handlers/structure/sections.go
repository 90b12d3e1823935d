package structure

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// CreateSectionRequest represents the request body for adding a section
type CreateSectionRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// ListSections handles GET .../semesters/:semester_id/sections
func (h *StructureHandler) ListSections(c *fiber.Ctx) error {
	sections, err := h.structure.ListSections(c.UserContext(), semesterRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, sections)
}

// GetSection handles GET .../sections/:section_id
func (h *StructureHandler) GetSection(c *fiber.Ctx) error {
	section, err := h.structure.SectionCollections(c.UserContext(), sectionRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, section)
}

// CreateSection handles POST .../semesters/:semester_id/sections
func (h *StructureHandler) CreateSection(c *fiber.Ctx) error {
	var req CreateSectionRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	name := validation.SanitizeString(req.Name)
	sectionID, err := h.structure.AddSection(c.UserContext(), semesterRef(c), name)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, fiber.Map{"id": sectionID, "name": name})
}

// DeleteSection handles DELETE .../sections/:section_id
func (h *StructureHandler) DeleteSection(c *fiber.Ctx) error {
	result, err := h.deletion.DeleteSection(c.UserContext(), sectionRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Section deleted successfully", result)
}
