package middleware

import (
	"productapi/internal/models"
	"productapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// productInputKey is the Fiber locals key holding the validated payload.
const productInputKey = "product_input"

// ValidateBody is a Fiber middleware that checks the request body against a schema.
// On failure the validation error is passed on and the handler never runs.
func ValidateBody(schema *validation.Schema) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := schema.Parse(c.Body())
		if err != nil {
			return err
		}

		// Store the payload in Fiber context for the handler
		c.Locals(productInputKey, input)

		return c.Next()
	}
}

// ProductInput returns the payload stored by ValidateBody.
func ProductInput(c *fiber.Ctx) (*models.ProductInput, bool) {
	input, ok := c.Locals(productInputKey).(*models.ProductInput)
	return input, ok && input != nil
}
