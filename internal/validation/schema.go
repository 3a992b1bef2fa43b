// Package validation checks product payloads against declarative rule sets
// before they reach a handler.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"strings"

	"productapi/internal/apperrors"
	"productapi/internal/models"

	"github.com/go-playground/validator/v10"
)

// CreateProductRules are the rules a new product must satisfy,
// keyed by models.ProductInput field name.
var CreateProductRules = map[string]string{
	"Name":        "required,min=3",
	"Price":       "required,gt=0",
	"Description": "omitempty",
	"Stock":       "omitempty,gt=0",
}

// UpdateProductRules apply the same constraints with every field optional.
var UpdateProductRules = map[string]string{
	"Name":        "omitempty,min=3",
	"Price":       "omitempty,gt=0",
	"Description": "omitempty",
	"Stock":       "omitempty,gt=0",
}

// Schema validates request bodies against one rule set.
type Schema struct {
	name     string
	rules    map[string]string
	validate *validator.Validate
}

// NewSchema builds a schema from a rule set.
func NewSchema(name string, rules map[string]string) *Schema {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterStructValidationMapRules(rules, models.ProductInput{})
	return &Schema{
		name:     name,
		rules:    maps.Clone(rules),
		validate: v,
	}
}

// Name identifies the schema in logs.
func (s *Schema) Name() string {
	return s.name
}

// Rules returns a copy of the rule set.
func (s *Schema) Rules() map[string]string {
	return maps.Clone(s.rules)
}

// Parse decodes a JSON body and validates it. Unknown keys are dropped.
// A key that is present must carry a value of its field's type; null is
// not accepted in place of a value.
// Any failure is an *apperrors.ValidationError.
func (s *Schema) Parse(body []byte) (*models.ProductInput, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &apperrors.ValidationError{Violations: []apperrors.Violation{bodyViolation(err)}}
	}
	if raw == nil {
		return nil, &apperrors.ValidationError{Violations: []apperrors.Violation{
			{Field: "body", Message: "must be a JSON object"},
		}}
	}

	var input models.ProductInput
	var violations []apperrors.Violation
	mistyped := make(map[string]bool)
	for _, f := range productFields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		if msg := f.decode(value, &input); msg != "" {
			violations = append(violations, apperrors.Violation{Field: f.key, Message: msg})
			mistyped[f.key] = true
		}
	}

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validating %s payload: %w", s.name, err)
		}
		for _, fe := range fieldErrs {
			if mistyped[fe.Field()] {
				continue
			}
			violations = append(violations, apperrors.Violation{
				Field:   fe.Field(),
				Message: describe(fe),
			})
		}
	}

	if len(violations) > 0 {
		return nil, &apperrors.ValidationError{Violations: violations}
	}
	return &input, nil
}

const (
	mustBeString  = "must be a string"
	mustBeNumber  = "must be a number"
	mustBeInteger = "must be an integer"
)

// productFields decode each known key into its ProductInput field, in
// the order violations are reported. decode returns a violation message
// when the value has the wrong type.
var productFields = []struct {
	key    string
	decode func(raw json.RawMessage, in *models.ProductInput) string
}{
	{"name", func(raw json.RawMessage, in *models.ProductInput) (msg string) {
		in.Name, msg = decodeString(raw)
		return msg
	}},
	{"price", func(raw json.RawMessage, in *models.ProductInput) (msg string) {
		in.Price, msg = decodeNumber(raw, mustBeNumber)
		return msg
	}},
	{"description", func(raw json.RawMessage, in *models.ProductInput) (msg string) {
		in.Description, msg = decodeString(raw)
		return msg
	}},
	{"stock", func(raw json.RawMessage, in *models.ProductInput) (msg string) {
		in.Stock, msg = decodeInteger(raw)
		return msg
	}},
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage) (*string, string) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return nil, mustBeString
	}
	return &s, ""
}

func decodeNumber(raw json.RawMessage, msg string) (*float64, string) {
	var f float64
	if isNull(raw) || json.Unmarshal(raw, &f) != nil {
		return nil, msg
	}
	return &f, ""
}

// decodeInteger accepts any JSON number with no fractional part, so 5 and
// 5.0 are the same stock.
func decodeInteger(raw json.RawMessage) (*int, string) {
	f, msg := decodeNumber(raw, mustBeInteger)
	if msg != "" {
		return nil, msg
	}
	if *f != math.Trunc(*f) || *f < math.MinInt32 || *f > math.MaxInt32 {
		return nil, mustBeInteger
	}
	n := int(*f)
	return &n, ""
}

// bodyViolation describes a body that is not a JSON object.
func bodyViolation(err error) apperrors.Violation {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.Violation{Field: "body", Message: "must be a JSON object"}
	}
	return apperrors.Violation{Field: "body", Message: "must be valid JSON"}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
