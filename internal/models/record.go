package models

import "time"

// Record is the representation used by the external record store:
// a store-assigned id and an opaque field map.
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime time.Time              `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
}

// SortDirection is the ordering applied to a sorted listing.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort describes the field a listing is ordered by.
type Sort struct {
	Field     string
	Direction SortDirection
}
