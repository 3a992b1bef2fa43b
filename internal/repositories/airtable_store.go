package repositories

import (
	"context"
	"errors"
	"fmt"

	"productapi/internal/models"
	"productapi/pkg/airtable"
)

// AirtableRecordStore is a RecordStore backed by an Airtable table.
type AirtableRecordStore struct {
	table *airtable.Table
}

// NewAirtableRecordStore creates a new instance of AirtableRecordStore.
func NewAirtableRecordStore(table *airtable.Table) *AirtableRecordStore {
	return &AirtableRecordStore{
		table: table,
	}
}

// Create stores a new record.
func (s *AirtableRecordStore) Create(ctx context.Context, fields map[string]interface{}) (*models.Record, error) {
	rec, err := s.table.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	return fromAirtable(rec), nil
}

// List returns all records, sorted by Airtable.
func (s *AirtableRecordStore) List(ctx context.Context, sort models.Sort) ([]models.Record, error) {
	opts := airtable.ListOptions{}
	if sort.Field != "" {
		opts.Sort = []airtable.Sort{{Field: sort.Field, Direction: string(sort.Direction)}}
	}
	recs, err := s.table.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	records := make([]models.Record, 0, len(recs))
	for i := range recs {
		records = append(records, *fromAirtable(&recs[i]))
	}
	return records, nil
}

// Find fetches a record by id.
func (s *AirtableRecordStore) Find(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.table.Find(ctx, id)
	if err != nil {
		if errors.Is(err, airtable.ErrNotFound) {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
		}
		return nil, err
	}
	return fromAirtable(rec), nil
}

// Update patches a record. Airtable answers 404 for an unknown id.
func (s *AirtableRecordStore) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Record, error) {
	rec, err := s.table.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	return fromAirtable(rec), nil
}

// Destroy deletes a record. The returned record carries only the id.
func (s *AirtableRecordStore) Destroy(ctx context.Context, id string) (*models.Record, error) {
	rec, err := s.table.Destroy(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromAirtable(rec), nil
}

func fromAirtable(rec *airtable.Record) *models.Record {
	fields := rec.Fields
	if fields == nil {
		fields = make(map[string]interface{})
	}
	return &models.Record{
		ID:          rec.ID,
		CreatedTime: rec.CreatedTime,
		Fields:      fields,
	}
}
