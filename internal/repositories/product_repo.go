package repositories

import (
	"context"

	"productapi/internal/models"
)

// ProductRepository defines the interface for product data access.
// GetByID returns a nil product and a nil error when the id is unknown.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, input models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, input models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}
