package service

import (
	"encoding/json"
	"testing"

	"browser-dispatch/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var elementSchema = entity.Schema{Fields: []entity.Field{
	{Name: "selector", Type: entity.TypeString, Required: true, MinLength: 1},
	{Name: "timeout", Type: entity.TypeNumber, Default: 10.0, Min: entity.Float(0), Max: entity.Float(120)},
	{Name: "retries", Type: entity.TypeInteger, Min: entity.Float(0)},
	{Name: "mode", Type: entity.TypeString, Enum: []string{"fast", "slow"}},
	{Name: "clear", Type: entity.TypeBoolean, Default: true},
	{Name: "tags", Type: entity.TypeArray, MaxLength: 3, Items: &entity.Field{Type: entity.TypeString, MinLength: 1}},
}}

func TestValidate_AppliesDefaults(t *testing.T) {
	args, err := Validate(elementSchema, map[string]any{"selector": "#submit-button"})
	require.NoError(t, err)

	assert.Equal(t, entity.Arguments{
		"selector": "#submit-button",
		"timeout":  10.0,
		"clear":    true,
	}, args)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"selector": "a"}
	_, err := Validate(elementSchema, raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"selector": "a"}, raw)
}

func TestValidate_NormalizesNumbers(t *testing.T) {
	args, err := Validate(elementSchema, map[string]any{
		"selector": "a",
		"timeout":  5,
		"retries":  json.Number("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, args["timeout"])
	assert.Equal(t, int64(3), args["retries"])
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"missing required", map[string]any{}, "selector"},
		{"null required", map[string]any{"selector": nil}, "selector"},
		{"wrong type", map[string]any{"selector": 42}, "selector"},
		{"empty selector", map[string]any{"selector": ""}, "selector"},
		{"unknown field", map[string]any{"selector": "a", "zzz": 1, "bogus": true}, "bogus"},
		{"below minimum", map[string]any{"selector": "a", "timeout": -1}, "timeout"},
		{"above maximum", map[string]any{"selector": "a", "timeout": 121.5}, "timeout"},
		{"fractional integer", map[string]any{"selector": "a", "retries": 1.5}, "retries"},
		{"number as string", map[string]any{"selector": "a", "timeout": "5"}, "timeout"},
		{"enum", map[string]any{"selector": "a", "mode": "medium"}, "mode"},
		{"boolean type", map[string]any{"selector": "a", "clear": "yes"}, "clear"},
		{"array type", map[string]any{"selector": "a", "tags": "x"}, "tags"},
		{"array too long", map[string]any{"selector": "a", "tags": []any{"a", "b", "c", "d"}}, "tags"},
		{"array item", map[string]any{"selector": "a", "tags": []any{"ok", ""}}, "tags[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := Validate(elementSchema, tt.raw)
			require.Error(t, err)
			assert.Nil(t, args)
			assert.ErrorIs(t, err, entity.ErrValidation)

			var verr *entity.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Constraint)
		})
	}
}

func TestValidate_URLFormat(t *testing.T) {
	valid := []string{
		"https://www.example.com",
		"http://localhost:8080/path?q=1",
		"file:///tmp/index.html",
		"about:blank",
	}
	for _, u := range valid {
		_, err := Validate(urlSchema, map[string]any{"url": u})
		assert.NoError(t, err, u)
	}

	invalid := []string{"", "   ", "www.example.com", "javascript:alert(1)", "ftp://example.com", "://bad"}
	for _, u := range invalid {
		_, err := Validate(urlSchema, map[string]any{"url": u})
		assert.ErrorIs(t, err, entity.ErrValidation, u)
	}
}

func TestValidate_ArrayOfStrings(t *testing.T) {
	args, err := Validate(elementSchema, map[string]any{"selector": "a", "tags": []string{"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, args["tags"])
}

func TestValidate_EmptySchema(t *testing.T) {
	args, err := Validate(entity.Schema{}, nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = Validate(entity.Schema{}, map[string]any{"anything": 1})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestValidator_IntegerDefaultsAreNormalized(t *testing.T) {
	v, err := NewValidator(entity.Schema{Fields: []entity.Field{
		{Name: "max", Type: entity.TypeInteger, Default: 50, Min: entity.Float(1), Max: entity.Float(500)},
	}})
	require.NoError(t, err)

	args, err := v.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(50), args["max"])

	args, err = v.Validate(map[string]any{"max": 7.0})
	require.NoError(t, err)
	assert.Equal(t, int64(7), args["max"])
}

func TestValidator_RejectsInvalidDefaults(t *testing.T) {
	tests := []struct {
		name  string
		field entity.Field
	}{
		{"wrong type", entity.Field{Name: "max", Type: entity.TypeInteger, Default: "fifty"}},
		{"fractional integer", entity.Field{Name: "max", Type: entity.TypeInteger, Default: 2.5}},
		{"out of range", entity.Field{Name: "timeout", Type: entity.TypeNumber, Default: 500.0, Max: entity.Float(120)}},
		{"not in enum", entity.Field{Name: "mode", Type: entity.TypeString, Default: "medium", Enum: []string{"fast", "slow"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(entity.Schema{Fields: []entity.Field{tt.field}})
			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}
}

func TestValidator_IntegerOutOfInt64Range(t *testing.T) {
	v, err := NewValidator(entity.Schema{Fields: []entity.Field{{Name: "n", Type: entity.TypeInteger}}})
	require.NoError(t, err)

	for _, raw := range []any{1e19, -1e19, json.Number("99999999999999999999")} {
		_, err := v.Validate(map[string]any{"n": raw})
		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, "n", verr.Field)
		assert.Equal(t, "out of int64 range", verr.Constraint)
	}

	args, err := v.Validate(map[string]any{"n": json.Number("-42")})
	require.NoError(t, err)
	assert.Equal(t, int64(-42), args["n"])
}

func TestValidator_RejectsNonFiniteNumbers(t *testing.T) {
	v, err := NewValidator(elementSchema)
	require.NoError(t, err)

	_, err = v.Validate(map[string]any{"selector": "a", "timeout": json.Number("1e400")})
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timeout", verr.Field)
}

func TestToolRegistry_RejectsSchemaWithInvalidDefault(t *testing.T) {
	r := NewToolRegistry()
	desc := textTool("bad", noop)
	desc.Schema = entity.Schema{Fields: []entity.Field{
		{Name: "clear", Type: entity.TypeBoolean, Default: "yes"},
	}}
	err := r.Register(desc)
	require.Error(t, err)
	assert.Equal(t, 0, r.Len())
}
