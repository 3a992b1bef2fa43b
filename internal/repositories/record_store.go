package repositories

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"productapi/internal/models"
)

// ErrRecordNotFound is returned by a RecordStore when the id is unknown.
var ErrRecordNotFound = errors.New("record not found")

// RecordStore is the external tabular store holding product records.
// Every call is a single round trip; implementations must be safe for concurrent use.
type RecordStore interface {
	Create(ctx context.Context, fields map[string]interface{}) (*models.Record, error)
	List(ctx context.Context, sort models.Sort) ([]models.Record, error)
	Find(ctx context.Context, id string) (*models.Record, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Record, error)
	Destroy(ctx context.Context, id string) (*models.Record, error)
}

// sortRecords orders records by one field, keeping the incoming order for ties.
func sortRecords(records []models.Record, sort models.Sort) {
	if sort.Field == "" {
		return
	}
	slices.SortStableFunc(records, func(a, b models.Record) int {
		c := compareValues(a.Fields[sort.Field], b.Fields[sort.Field])
		if sort.Direction == models.SortDesc {
			return -c
		}
		return c
	})
}

// compareValues orders missing values first, then numbers numerically
// and everything else by its string form.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
