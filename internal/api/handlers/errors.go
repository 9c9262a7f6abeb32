package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/maintsense/backend/internal/errs"
)

// statusFor maps core error kinds to transport status codes. Anything
// outside the taxonomy is an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, errs.ErrMalformedInput),
		errors.Is(err, errs.ErrNotCSV),
		errors.Is(err, errs.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
