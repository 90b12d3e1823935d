package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/services"
)

// Response represents a standardized API response
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Resource created successfully",
		Data:    data,
	})
}

// NoContent returns a 204 No Content response
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Error returns an error response
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ErrorWithDetails returns an error response with details
func ErrorWithDetails(c *fiber.Ctx, statusCode int, message string, code string, details string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message, "UNAUTHORIZED")
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message, "FORBIDDEN")
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message, "NOT_FOUND")
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource already exists"
	}
	return Error(c, fiber.StatusConflict, message, "CONFLICT")
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message, "TOO_MANY_REQUESTS")
}

// ValidationError returns a 422 Unprocessable Entity response for validation errors
func ValidationError(c *fiber.Ctx, details string) error {
	return ErrorWithDetails(c, fiber.StatusUnprocessableEntity,
		"Validation failed", "VALIDATION_ERROR", details)
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// ServiceUnavailable returns a 503 Service Unavailable response
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return Error(c, fiber.StatusServiceUnavailable, message, "SERVICE_UNAVAILABLE")
}

// ServiceError maps a service error kind to its status code
func ServiceError(c *fiber.Ctx, err error) error {
	detail := services.ErrorDetail(err)
	switch {
	case errors.Is(err, services.ErrValidation):
		return ValidationError(c, detail)
	case errors.Is(err, services.ErrNotFound):
		return NotFound(c, detail)
	case errors.Is(err, services.ErrConflict):
		return Conflict(c, detail)
	case errors.Is(err, services.ErrPersistence):
		return ErrorWithDetails(c, fiber.StatusInternalServerError, "Failed to save changes", "PERSISTENCE_ERROR", detail)
	default:
		return InternalServerError(c, "")
	}
}
