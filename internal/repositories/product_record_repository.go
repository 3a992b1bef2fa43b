package repositories

import (
	"context"
	"errors"
	"math"

	"productapi/internal/apperrors"
	"productapi/internal/models"
)

// nameSort is the order in which products are listed.
var nameSort = models.Sort{Field: "name", Direction: models.SortAsc}

// RecordProductRepository maps products onto a RecordStore.
type RecordProductRepository struct {
	store RecordStore
}

// NewRecordProductRepository creates a new RecordProductRepository.
func NewRecordProductRepository(store RecordStore) *RecordProductRepository {
	return &RecordProductRepository{
		store: store,
	}
}

// GetAll retrieves every product, ordered by name.
func (r *RecordProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	records, err := r.store.List(ctx, nameSort)
	if err != nil {
		return nil, apperrors.NewStoreError("list", err)
	}
	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, toProduct(rec))
	}
	return products, nil
}

// GetByID retrieves a single product. Not found is reported as (nil, nil).
func (r *RecordProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	rec, err := r.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStoreError("find", err)
	}
	product := toProduct(*rec)
	return &product, nil
}

// Create stores the supplied fields as a new product.
func (r *RecordProductRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	rec, err := r.store.Create(ctx, input.Fields())
	if err != nil {
		return nil, apperrors.NewStoreError("create", err)
	}
	product := toProduct(*rec)
	return &product, nil
}

// Update applies the supplied fields and returns the resulting product.
// An unknown id is a store failure here, not a not-found result.
func (r *RecordProductRepository) Update(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	rec, err := r.store.Update(ctx, id, input.Fields())
	if err != nil {
		return nil, apperrors.NewStoreError("update", err)
	}
	product := toProduct(*rec)
	return &product, nil
}

// Delete removes a product and returns what the store reported for it.
func (r *RecordProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	rec, err := r.store.Destroy(ctx, id)
	if err != nil {
		return nil, apperrors.NewStoreError("delete", err)
	}
	product := toProduct(*rec)
	return &product, nil
}

func toProduct(rec models.Record) models.Product {
	p := models.Product{ID: rec.ID}
	if name, ok := rec.Fields["name"].(string); ok {
		p.Name = name
	}
	if price, ok := toFloat(rec.Fields["price"]); ok {
		p.Price = price
	}
	if description, ok := rec.Fields["description"].(string); ok {
		p.Description = description
	}
	if stock, ok := toFloat(rec.Fields["stock"]); ok {
		p.Stock = int(math.Round(stock))
	}
	return p
}
