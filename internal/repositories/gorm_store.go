package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"productapi/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// recordRow is the SQL row behind a record: the field map is kept as a JSON document.
type recordRow struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Fields    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (recordRow) TableName() string {
	return "records"
}

// GORMRecordStore is a GORM implementation of RecordStore.
type GORMRecordStore struct {
	db *gorm.DB
}

// NewGORMRecordStore creates a new instance of GORMRecordStore and migrates its table.
func NewGORMRecordStore(db *gorm.DB) (*GORMRecordStore, error) {
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate records table: %w", err)
	}
	return &GORMRecordStore{
		db: db,
	}, nil
}

// Create inserts a new record.
func (s *GORMRecordStore) Create(ctx context.Context, fields map[string]interface{}) (*models.Record, error) {
	row := recordRow{ID: uuid.New().String()}
	if err := row.setFields(fields); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	return row.toRecord()
}

// List retrieves all records, sorted by the given field.
func (s *GORMRecordStore) List(ctx context.Context, sort models.Sort) ([]models.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).Order("created_at").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	records := make([]models.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	sortRecords(records, sort)
	return records, nil
}

// Find retrieves a single record by its ID.
func (s *GORMRecordStore) Find(ctx context.Context, id string) (*models.Record, error) {
	row, err := s.first(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

// Update merges the given fields into an existing record.
func (s *GORMRecordStore) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Record, error) {
	var updated *models.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.first(tx, id)
		if err != nil {
			return err
		}
		current, err := row.toRecord()
		if err != nil {
			return err
		}
		maps.Copy(current.Fields, fields)
		if err := row.setFields(current.Fields); err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to update record %s: %w", id, err)
		}
		updated, err = row.toRecord()
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Destroy deletes a record by its ID and returns it as it was.
func (s *GORMRecordStore) Destroy(ctx context.Context, id string) (*models.Record, error) {
	var deleted *models.Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.first(tx, id)
		if err != nil {
			return err
		}
		res := tx.Delete(&recordRow{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete record %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("record %s not found for deletion: %w", id, ErrRecordNotFound)
		}
		deleted, err = row.toRecord()
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *GORMRecordStore) first(db *gorm.DB, id string) (*recordRow, error) {
	var row recordRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return &row, nil
}

func (r *recordRow) setFields(fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode record fields: %w", err)
	}
	r.Fields = string(raw)
	return nil
}

func (r *recordRow) toRecord() (*models.Record, error) {
	fields := make(map[string]interface{})
	if r.Fields != "" {
		if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields of record %s: %w", r.ID, err)
		}
	}
	return &models.Record{
		ID:          r.ID,
		CreatedTime: r.CreatedAt,
		Fields:      fields,
	}, nil
}
