package repositories

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"productapi/internal/models"

	"github.com/google/uuid"
)

// MemoryRecordStore is an in-memory implementation of RecordStore.
// Ids mimic the store's "rec" prefixed identifiers.
type MemoryRecordStore struct {
	records map[string]models.Record
	order   []string
	mu      sync.RWMutex
}

// NewMemoryRecordStore creates a new instance of MemoryRecordStore.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]models.Record),
	}
}

// Create adds a new record.
func (s *MemoryRecordStore) Create(_ context.Context, fields map[string]interface{}) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.Record{
		ID:          newRecordID(),
		CreatedTime: time.Now().UTC(),
		Fields:      maps.Clone(fields),
	}
	if rec.Fields == nil {
		rec.Fields = make(map[string]interface{})
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return cloneRecord(rec), nil
}

// List returns all records in insertion order, then sorted.
func (s *MemoryRecordStore) List(_ context.Context, sort models.Sort) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, *cloneRecord(s.records[id]))
	}
	sortRecords(records, sort)
	return records, nil
}

// Find returns a record by its ID.
func (s *MemoryRecordStore) Find(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
	}
	return cloneRecord(rec), nil
}

// Update merges the given fields into an existing record.
func (s *MemoryRecordStore) Update(_ context.Context, id string, fields map[string]interface{}) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s not found for update: %w", id, ErrRecordNotFound)
	}
	rec.Fields = maps.Clone(rec.Fields)
	maps.Copy(rec.Fields, fields)
	s.records[id] = rec
	return cloneRecord(rec), nil
}

// Destroy removes a record by its ID and returns it.
func (s *MemoryRecordStore) Destroy(_ context.Context, id string) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %s not found for deletion: %w", id, ErrRecordNotFound)
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return cloneRecord(rec), nil
}

func cloneRecord(rec models.Record) *models.Record {
	rec.Fields = maps.Clone(rec.Fields)
	return &rec
}

func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.New().String(), "-", "")[:14]
}
