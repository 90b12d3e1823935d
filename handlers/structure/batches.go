package structure

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// CreateBatchRequest represents the request body for provisioning a batch.
// The batch always spans the degree's duration.
type CreateBatchRequest struct {
	Name          string `json:"name" validate:"omitempty,max=100"`
	StartYear     int    `json:"startYear" validate:"required,min=1900,max=3000"`
	EndYear       int    `json:"endYear" validate:"omitempty,min=1900,max=3000"`
	StartMonth    int    `json:"startMonth" validate:"omitempty,min=1,max=12"`
	PromotedYears int    `json:"promotedYears" validate:"omitempty,min=0"`
}

// PromoteBatchRequest represents the request body for promoting a batch
type PromoteBatchRequest struct {
	Years int `json:"years" validate:"required"`
}

func streamRef(c *fiber.Ctx) services.StreamRef {
	return services.StreamRef{DegreeID: c.Params("degree_id"), StreamID: c.Params("stream_id")}
}

func batchRef(c *fiber.Ctx) services.BatchRef {
	return services.BatchRef{StreamRef: streamRef(c), BatchID: c.Params("batch_id")}
}

func yearRef(c *fiber.Ctx) services.YearRef {
	return services.YearRef{BatchRef: batchRef(c), YearID: c.Params("year_id")}
}

func semesterRef(c *fiber.Ctx) services.SemesterRef {
	return services.SemesterRef{YearRef: yearRef(c), SemesterID: c.Params("semester_id")}
}

func sectionRef(c *fiber.Ctx) services.SectionRef {
	return services.SectionRef{SemesterRef: semesterRef(c), SectionID: c.Params("section_id")}
}

// ListBatches handles GET /api/v1/degrees/:degree_id/streams/:stream_id/batches
func (h *StructureHandler) ListBatches(c *fiber.Ctx) error {
	batches, err := h.structure.ListBatches(c.UserContext(), streamRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, batches)
}

// GetBatch handles GET .../batches/:batch_id
func (h *StructureHandler) GetBatch(c *fiber.Ctx) error {
	batch, err := h.structure.GetBatch(c.UserContext(), batchRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, batch)
}

// CreateBatch handles POST .../streams/:stream_id/batches
func (h *StructureHandler) CreateBatch(c *fiber.Ctx) error {
	var req CreateBatchRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	ref := streamRef(c)
	batchID, err := h.structure.ProvisionBatch(c.UserContext(), ref, services.BatchInput{
		Name:          validation.SanitizeString(req.Name),
		StartYear:     req.StartYear,
		EndYear:       req.EndYear,
		PromotedYears: req.PromotedYears,
		StartMonth:    req.StartMonth,
	})
	if err != nil {
		return response.ServiceError(c, err)
	}

	batch, err := h.structure.GetBatch(c.UserContext(), services.BatchRef{StreamRef: ref, BatchID: batchID})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, batch)
}

// DeleteBatch handles DELETE .../batches/:batch_id
func (h *StructureHandler) DeleteBatch(c *fiber.Ctx) error {
	result, err := h.deletion.DeleteBatch(c.UserContext(), batchRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Batch deleted successfully", result)
}

// PromoteBatch handles POST .../batches/:batch_id/promote
func (h *StructureHandler) PromoteBatch(c *fiber.Ctx) error {
	var req PromoteBatchRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	batch, err := h.structure.PromoteBatch(c.UserContext(), batchRef(c), req.Years)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Batch promoted successfully", batch)
}

// ListYears handles GET .../batches/:batch_id/years
func (h *StructureHandler) ListYears(c *fiber.Ctx) error {
	years, err := h.structure.ListYears(c.UserContext(), batchRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, years)
}

// ListSemesters handles GET .../years/:year_id/semesters
func (h *StructureHandler) ListSemesters(c *fiber.Ctx) error {
	semesters, err := h.structure.ListSemesters(c.UserContext(), yearRef(c))
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, semesters)
}

// CurrentYear handles GET /api/v1/structure/current-year
func (h *StructureHandler) CurrentYear(c *fiber.Ctx) error {
	term := services.BatchTerm{StartMonth: services.DefaultStartMonth}

	var err error
	if term.StartYear, err = strconv.Atoi(c.Query("start_year")); err != nil {
		return response.ValidationError(c, "start_year must be a number")
	}
	if v := c.Query("start_month"); v != "" {
		if term.StartMonth, err = strconv.Atoi(v); err != nil || term.StartMonth < 1 || term.StartMonth > 12 {
			return response.ValidationError(c, "start_month must be between 1 and 12")
		}
	}
	if term.EndYear, err = strconv.Atoi(c.Query("end_year")); err != nil {
		return response.ValidationError(c, "end_year must be a number")
	}
	if v := c.Query("promoted_years"); v != "" {
		if term.PromotedYears, err = strconv.Atoi(v); err != nil {
			return response.ValidationError(c, "promoted_years must be a number")
		}
	}

	return response.Success(c, fiber.Map{
		"currentYear": services.CurrentYearLabel(term, h.now()),
		"term":        term,
	})
}
