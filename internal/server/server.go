package server

import (
	"io"
	"time"

	"productapi/internal/handlers"
	"productapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// Banner is the plain-text answer of the root route.
const Banner = "Product Records API - running"

// Options holds what the HTTP application is built from.
type Options struct {
	ProductService *services.ProductService
	Logger         *logrus.Logger
	// StoreName is reported by the health check.
	StoreName string
	// AccessLog receives one line per request; nil disables the request logger.
	AccessLog io.Writer
}

// NewApp wires middleware, the error responder and every route into a Fiber app.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "product-records-api",
		ErrorHandler:          handlers.ErrorHandler(opts.Logger),
		DisableStartupMessage: true,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(Banner)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"store":  opts.StoreName,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.NewProductHandler(opts.ProductService).RegisterRoutes(app)

	return app
}
