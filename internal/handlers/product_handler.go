package handlers

import (
	"strings"

	"productapi/internal/middleware"
	"productapi/internal/services"
	"productapi/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
// Failures are returned untouched so ErrorHandler alone decides their status.
type ProductHandler struct {
	service      *services.ProductService
	createSchema *validation.Schema
	updateSchema *validation.Schema
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:      service,
		createSchema: validation.NewSchema("create product", validation.CreateProductRules),
		updateSchema: validation.NewSchema("update product", validation.UpdateProductRules),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", middleware.ValidateBody(h.createSchema), h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", middleware.ValidateBody(h.updateSchema), h.HandleUpdateProduct)
	productRoutes.Patch("/:id", middleware.ValidateBody(h.updateSchema), h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, ok := middleware.ProductInput(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	product, err := h.service.CreateProduct(c.UserContext(), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProducts retrieves all products ordered by name.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), productID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(product)
}

// HandleUpdateProduct applies a partial update. PUT and PATCH share it.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	input, ok := middleware.ProductInput(c)
	if !ok {
		return fiber.ErrInternalServerError
	}
	product, err := h.service.UpdateProduct(c.UserContext(), productID(c), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(product)
}

// HandleDeleteProduct deletes a product and answers with an empty body.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if _, err := h.service.DeleteProduct(c.UserContext(), productID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// productID copies the path id out of Fiber's reused request buffer.
func productID(c *fiber.Ctx) string {
	return strings.Clone(c.Params("id"))
}
