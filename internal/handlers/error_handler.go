package handlers

import (
	"errors"

	"productapi/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorHandler is the single place where failures become HTTP responses.
// Every failure is logged with its full cause; clients of a 500 only see a generic message.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		entry := log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.Locals("requestid"),
		})

		var validationErr *apperrors.ValidationError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &validationErr):
			entry.Warn("Request payload failed validation")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  validationErr.Violations,
			})
		case errors.Is(err, apperrors.ErrNotFound):
			entry.Warn("Product not found")
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		case errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError:
			entry.Warn("Request rejected by router")
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
			})
		default:
			entry.Error("Request failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}
	}
}
