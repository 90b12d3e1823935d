package structure

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// StructureHandler serves the degree/stream/batch/section hierarchy
type StructureHandler struct {
	structure *services.StructureService
	deletion  *services.DeletionService
	validator *validation.Validator
	now       func() time.Time
}

// NewStructureHandler creates a new structure handler
func NewStructureHandler(structure *services.StructureService, deletion *services.DeletionService) *StructureHandler {
	return &StructureHandler{
		structure: structure,
		deletion:  deletion,
		validator: validation.NewValidator(),
		now:       time.Now,
	}
}

// CreateDegreeRequest represents the request body for creating a degree
type CreateDegreeRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Duration int    `json:"duration" validate:"required,min=1,max=10"`
}

// UpdateDegreeRequest represents the request body for updating a degree
type UpdateDegreeRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Duration *int    `json:"duration" validate:"omitempty,min=1,max=10"`
}

// CreateStreamRequest represents the request body for adding a stream
type CreateStreamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// parseBody decodes and validates a request body; on failure the response
// has already been written and the returned error should be returned as is
func (h *StructureHandler) parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return false, response.ValidationError(c, validation.Describe(err))
	}
	return true, nil
}

// ListDegrees handles GET /api/v1/degrees
func (h *StructureHandler) ListDegrees(c *fiber.Ctx) error {
	degrees, err := h.structure.ListDegrees(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, degrees)
}

// GetDegree handles GET /api/v1/degrees/:degree_id
func (h *StructureHandler) GetDegree(c *fiber.Ctx) error {
	degree, err := h.structure.GetDegree(c.UserContext(), c.Params("degree_id"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, degree)
}

// CreateDegree handles POST /api/v1/degrees
func (h *StructureHandler) CreateDegree(c *fiber.Ctx) error {
	var req CreateDegreeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	degreeID, err := h.structure.ProvisionDegree(c.UserContext(), validation.SanitizeString(req.Name), req.Duration)
	if err != nil {
		return response.ServiceError(c, err)
	}

	degree, err := h.structure.GetDegree(c.UserContext(), degreeID)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, degree)
}

// UpdateDegree handles PUT /api/v1/degrees/:degree_id
func (h *StructureHandler) UpdateDegree(c *fiber.Ctx) error {
	var req UpdateDegreeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	degree, err := h.structure.UpdateDegree(c.UserContext(), c.Params("degree_id"), services.DegreeUpdate{
		Name:     req.Name,
		Duration: req.Duration,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Degree updated successfully", degree)
}

// DeleteDegree handles DELETE /api/v1/degrees/:degree_id
func (h *StructureHandler) DeleteDegree(c *fiber.Ctx) error {
	result, err := h.deletion.DeleteDegree(c.UserContext(), c.Params("degree_id"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Degree deleted successfully", result)
}

// ListStreams handles GET /api/v1/degrees/:degree_id/streams
func (h *StructureHandler) ListStreams(c *fiber.Ctx) error {
	streams, err := h.structure.ListStreams(c.UserContext(), c.Params("degree_id"))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, streams)
}

// CreateStream handles POST /api/v1/degrees/:degree_id/streams
func (h *StructureHandler) CreateStream(c *fiber.Ctx) error {
	var req CreateStreamRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	name := validation.SanitizeString(req.Name)
	streamID, err := h.structure.AddStream(c.UserContext(), c.Params("degree_id"), name)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, fiber.Map{"id": streamID, "name": name})
}

// DeleteStream handles DELETE /api/v1/degrees/:degree_id/streams/:stream_id
func (h *StructureHandler) DeleteStream(c *fiber.Ctx) error {
	result, err := h.deletion.DeleteStream(c.UserContext(), streamRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Stream deleted successfully", result)
}

// Tree handles GET /api/v1/structure/tree
func (h *StructureHandler) Tree(c *fiber.Ctx) error {
	tree, err := h.structure.Tree(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, tree)
}
