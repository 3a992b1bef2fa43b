package models

// Product represents a product record as exposed by the API.
// ID is assigned by the record store and sits next to the domain fields.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}

// ProductInput is the validated body of a create or update request.
// A nil field was not supplied by the client and is left untouched.
type ProductInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
}

// Fields returns the supplied fields keyed by their store column names.
func (in ProductInput) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, 4)
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Stock != nil {
		fields["stock"] = *in.Stock
	}
	return fields
}
