package validation_test

import (
	"errors"
	"testing"

	"productapi/internal/apperrors"
	"productapi/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violationsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	out := make(map[string]string, len(verr.Violations))
	for _, v := range verr.Violations {
		out[v.Field] = v.Message
	}
	return out
}

func TestCreateSchema(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "valid minimal", body: `{"name":"Keyboard","price":49.90}`},
		{name: "valid full", body: `{"name":"Keyboard","price":49.90,"description":"Mechanical","stock":3}`},
		{name: "whole float stock", body: `{"name":"Keyboard","price":49.90,"stock":5.0}`},
		{name: "missing name", body: `{"price":10}`, wantFields: []string{"name"}},
		{name: "missing price", body: `{"name":"Keyboard"}`, wantFields: []string{"price"}},
		{name: "empty body", body: ``, wantFields: []string{"name", "price"}},
		{name: "short name", body: `{"name":"ab","price":10}`, wantFields: []string{"name"}},
		{name: "zero price", body: `{"name":"Keyboard","price":0}`, wantFields: []string{"price"}},
		{name: "negative price", body: `{"name":"Keyboard","price":-1}`, wantFields: []string{"price"}},
		{name: "string price", body: `{"name":"Keyboard","price":"10"}`, wantFields: []string{"price"}},
		{name: "null name", body: `{"name":null,"price":10}`, wantFields: []string{"name"}},
		{name: "null description", body: `{"name":"Keyboard","price":10,"description":null}`, wantFields: []string{"description"}},
		{name: "null stock", body: `{"name":"Keyboard","price":10,"stock":null}`, wantFields: []string{"stock"}},
		{name: "two mistyped keys", body: `{"price":"abc","name":1}`, wantFields: []string{"name", "price"}},
		{name: "zero stock", body: `{"name":"Keyboard","price":10,"stock":0}`, wantFields: []string{"stock"}},
		{name: "fractional stock", body: `{"name":"Keyboard","price":10,"stock":2.5}`, wantFields: []string{"stock"}},
		{name: "numeric description", body: `{"name":"Keyboard","price":10,"description":5}`, wantFields: []string{"description"}},
		{name: "malformed json", body: `{"name":`, wantFields: []string{"body"}},
		{name: "array body", body: `[]`, wantFields: []string{"body"}},
		{name: "null body", body: `null`, wantFields: []string{"body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := schema.Parse([]byte(tt.body))
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				require.NotNil(t, input)
				assert.Equal(t, "Keyboard", *input.Name)
				assert.Equal(t, 49.9, *input.Price)
				return
			}
			assert.Nil(t, input)
			got := violationsOf(t, err)
			assert.Len(t, got, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, got, f)
			}
		})
	}
}

func TestCreateSchema_DropsUnknownFields(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	input, err := schema.Parse([]byte(`{"id":"recForged","name":"Keyboard","price":10,"color":"red"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Keyboard", "price": 10.0}, input.Fields())
}

func TestCreateSchema_Messages(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	_, err := schema.Parse([]byte(`{"name":"ab","stock":1.5}`))
	got := violationsOf(t, err)
	assert.Equal(t, "must be at least 3 characters long", got["name"])
	assert.Equal(t, "is required", got["price"])
	assert.Equal(t, "must be an integer", got["stock"])
}

func TestCreateSchema_ReportsEveryMistypedField(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	_, err := schema.Parse([]byte(`{"price":"abc","name":1,"description":false,"stock":"3"}`))
	assert.Equal(t, map[string]string{
		"name":        "must be a string",
		"price":       "must be a number",
		"description": "must be a string",
		"stock":       "must be an integer",
	}, violationsOf(t, err))
}

func TestCreateSchema_WholeFloatStockIsInteger(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	input, err := schema.Parse([]byte(`{"name":"Mouse","price":5,"stock":5.0}`))
	require.NoError(t, err)
	require.NotNil(t, input.Stock)
	assert.Equal(t, 5, *input.Stock)
}

func TestUpdateSchema(t *testing.T) {
	schema := validation.NewSchema("update product", validation.UpdateProductRules)

	input, err := schema.Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, input.Fields())

	input, err = schema.Parse([]byte(`{"stock":7}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"stock": 7}, input.Fields())

	_, err = schema.Parse([]byte(`{"stock":-5}`))
	got := violationsOf(t, err)
	assert.Equal(t, "must be greater than 0", got["stock"])

	_, err = schema.Parse([]byte(`{"name":"x","price":0}`))
	got = violationsOf(t, err)
	assert.Contains(t, got, "name")
	assert.Contains(t, got, "price")

	input, err = schema.Parse([]byte(`{"stock":7.0}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"stock": 7}, input.Fields())
}

func TestUpdateSchema_RejectsNull(t *testing.T) {
	schema := validation.NewSchema("update product", validation.UpdateProductRules)

	tests := []struct {
		body  string
		field string
		want  string
	}{
		{body: `{"name":null}`, field: "name", want: "must be a string"},
		{body: `{"price":null}`, field: "price", want: "must be a number"},
		{body: `{"description":null}`, field: "description", want: "must be a string"},
		{body: `{"stock":null}`, field: "stock", want: "must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			input, err := schema.Parse([]byte(tt.body))
			assert.Nil(t, input)
			assert.Equal(t, map[string]string{tt.field: tt.want}, violationsOf(t, err))
		})
	}
}

func TestSchema_RulesAreInspectable(t *testing.T) {
	schema := validation.NewSchema("create product", validation.CreateProductRules)

	rules := schema.Rules()
	assert.Equal(t, "required,min=3", rules["Name"])
	rules["Name"] = "changed"
	assert.Equal(t, "required,min=3", schema.Rules()["Name"])
}
