package api

import (
	"github.com/gofiber/fiber/v3"

	"concierge/internal/models"
)

// cacheStatic is the Cache-Control value for static documents.
const cacheStatic = "public, s-maxage=3600"

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{Error: message})
}
