package services

import (
	"context"
	"time"

	"productapi/internal/apperrors"
	"productapi/internal/models"
	"productapi/internal/repositories"

	"github.com/sirupsen/logrus"
)

// EventPublisher publishes product change events.
type EventPublisher interface {
	PublishProductEvent(event models.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	log       *logrus.Logger
}

// NewProductService creates a new ProductService.
// publisher may be nil, in which case no events are sent.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, logger *logrus.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		log:       logger,
	}
}

// GetAllProducts retrieves all products ordered by name.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product, failing with apperrors.ErrNotFound if it does not exist.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.ErrNotFound
	}
	return product, nil
}

// CreateProduct creates a new product from an already validated input.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.publish(models.EventProductCreated, product.ID, product)
	return product, nil
}

// UpdateProduct applies a partial update to an existing product.
// Existence is checked first so an unknown id always yields apperrors.ErrNotFound;
// the check and the write are not atomic.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	if _, err := s.GetProductByID(ctx, id); err != nil {
		return nil, err
	}
	product, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.publish(models.EventProductUpdated, id, product)
	return product, nil
}

// DeleteProduct deletes an existing product and returns it as it was before deletion.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	existing, err := s.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.publish(models.EventProductDeleted, id, existing)
	return existing, nil
}

func (s *ProductService) publish(eventType, id string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := models.ProductEvent{
		Type:       eventType,
		ProductID:  id,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductEvent(event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":      eventType,
			"product_id": id,
		}).Warn("Failed to publish product event")
	}
}
