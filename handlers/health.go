package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/utils/response"
)

// HandlePing answers liveness checks without touching the store
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleCheckHealth reports whether the document store is reachable
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Document store is unreachable")
	}
	return response.Success(c, fiber.Map{
		"status": "ok",
		"store":  store.Driver(),
	})
}
