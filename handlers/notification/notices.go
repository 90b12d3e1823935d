package notification

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils/middleware"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// BulletinHandler handles notice and event endpoints
type BulletinHandler struct {
	bulletin  *services.BulletinService
	validator *validation.Validator
}

// NewBulletinHandler creates a new bulletin handler
func NewBulletinHandler(bulletin *services.BulletinService) *BulletinHandler {
	return &BulletinHandler{
		bulletin:  bulletin,
		validator: validation.NewValidator(),
	}
}

// NoticeRequest represents the request body for posting or editing a notice
type NoticeRequest struct {
	Title     string         `json:"title" validate:"required,max=200"`
	Message   string         `json:"message" validate:"required,max=5000"`
	Category  string         `json:"category" validate:"required,oneof=Academic 'Campus Life' Events Holiday Sports Placement Canteen"`
	VisibleTo model.Audience `json:"visible_to"`
}

func (r NoticeRequest) notice() model.Notice {
	return model.Notice{
		Title:     validation.SanitizeString(r.Title),
		Message:   validation.SanitizeString(r.Message),
		Category:  model.NoticeCategory(r.Category),
		VisibleTo: r.VisibleTo,
	}
}

func (h *BulletinHandler) parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return false, response.ValidationError(c, validation.Describe(err))
	}
	return true, nil
}

// ListNotices handles GET /api/v1/notices?degree=&year=&stream=
func (h *BulletinHandler) ListNotices(c *fiber.Ctx) error {
	notices, err := h.bulletin.ListNotices(c.UserContext(), services.AudienceFilter{
		Degree: strings.TrimSpace(c.Query("degree")),
		Year:   strings.TrimSpace(c.Query("year")),
		Stream: strings.TrimSpace(c.Query("stream")),
	})
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, notices)
}

// PostNotice handles POST /api/v1/notices
func (h *BulletinHandler) PostNotice(c *fiber.Ctx) error {
	var req NoticeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	n := req.notice()
	if identity, ok := middleware.GetIdentity(c); ok {
		n.PostedBy = identity.Email
		if n.PostedBy == "" {
			n.PostedBy = identity.UID
		}
	}

	notice, err := h.bulletin.PostNotice(c.UserContext(), n)
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, notice)
}

// UpdateNotice handles PUT /api/v1/notices/:id
func (h *BulletinHandler) UpdateNotice(c *fiber.Ctx) error {
	var req NoticeRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	notice, err := h.bulletin.UpdateNotice(c.UserContext(), c.Params("id"), req.notice())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Notice updated successfully", notice)
}

// DeleteNotice handles DELETE /api/v1/notices/:id
func (h *BulletinHandler) DeleteNotice(c *fiber.Ctx) error {
	if err := h.bulletin.DeleteNotice(c.UserContext(), c.Params("id")); err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Notice deleted successfully", nil)
}
