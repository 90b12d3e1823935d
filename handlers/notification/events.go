package notification

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/utils/response"
	"github.com/sahilchouksey/campus-api/utils/validation"
)

// EventRequest represents the request body for creating or editing an event
type EventRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=Competition Workshop Social Academic"`
	Date     int64  `json:"date" validate:"required,gt=0"`
	Location string `json:"location" validate:"omitempty,max=200"`
	Image    string `json:"image" validate:"omitempty,url"`
	AIHint   string `json:"aiHint" validate:"omitempty,max=100"`
}

func (r EventRequest) event() model.Event {
	return model.Event{
		Title:    validation.SanitizeString(r.Title),
		Type:     model.EventType(r.Type),
		Date:     r.Date,
		Location: validation.SanitizeString(r.Location),
		Image:    r.Image,
		AIHint:   validation.SanitizeString(r.AIHint),
	}
}

// ListEvents handles GET /api/v1/events
func (h *BulletinHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.bulletin.ListEvents(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Success(c, events)
}

// CreateEvent handles POST /api/v1/events
func (h *BulletinHandler) CreateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	event, err := h.bulletin.CreateEvent(c.UserContext(), req.event())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.Created(c, event)
}

// UpdateEvent handles PUT /api/v1/events/:id
func (h *BulletinHandler) UpdateEvent(c *fiber.Ctx) error {
	var req EventRequest
	if ok, err := h.parseBody(c, &req); !ok {
		return err
	}

	event, err := h.bulletin.UpdateEvent(c.UserContext(), c.Params("id"), req.event())
	if err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Event updated successfully", event)
}

// DeleteEvent handles DELETE /api/v1/events/:id
func (h *BulletinHandler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.bulletin.DeleteEvent(c.UserContext(), c.Params("id")); err != nil {
		return response.ServiceError(c, err)
	}
	return response.SuccessWithMessage(c, "Event deleted successfully", nil)
}
