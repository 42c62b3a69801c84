package service

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"browser-dispatch/internal/domain/entity"

	"github.com/google/jsonschema-go/jsonschema"
)

var allowedURLSchemes = []string{"http", "https", "file", "about"}

// Validator checks tool arguments against the JSON Schema the tool advertises.
// The schema is resolved once; Validate is safe for concurrent use.
type Validator struct {
	schema entity.Schema
	root   *jsonschema.Resolved
	fields map[string]*jsonschema.Resolved
	items  map[string]*jsonschema.Resolved
}

// NewValidator resolves schema and checks that every default satisfies its own field.
func NewValidator(schema entity.Schema) (*Validator, error) {
	root, err := resolve(schema.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	v := &Validator{
		schema: schema,
		root:   root,
		fields: make(map[string]*jsonschema.Resolved, len(schema.Fields)),
		items:  make(map[string]*jsonschema.Resolved),
	}
	for _, f := range schema.Fields {
		if v.fields[f.Name], err = resolve(f.JSONSchema()); err != nil {
			return nil, fmt.Errorf("resolve field %s: %w", f.Name, err)
		}
		if f.Items != nil {
			if v.items[f.Name], err = resolve(f.Items.JSONSchema()); err != nil {
				return nil, fmt.Errorf("resolve items of %s: %w", f.Name, err)
			}
		}
		if f.Default != nil {
			if _, err := v.check(map[string]any{f.Name: f.Default}, f.Name); err != nil {
				return nil, fmt.Errorf("default of %s: %w", f.Name, err)
			}
		}
	}
	return v, nil
}

// Validate resolves the schema and checks raw in one step. Registered tools use a cached Validator.
func Validate(schema entity.Schema, raw map[string]any) (entity.Arguments, error) {
	v, err := NewValidator(schema)
	if err != nil {
		return nil, err
	}
	return v.Validate(raw)
}

// Validate returns a fresh argument map with defaults applied. Unknown fields are rejected.
// Integers come out as int64 and numbers as float64. A null value counts as absent.
func (v *Validator) Validate(raw map[string]any) (entity.Arguments, error) {
	return v.check(raw, "")
}

// check validates raw, limited to one field when only is set.
func (v *Validator) check(raw map[string]any, only string) (entity.Arguments, error) {
	args, err := v.normalize(raw)
	if err != nil {
		return nil, err
	}

	root := v.root
	if only != "" {
		root = v.fields[only]
		if err := root.Validate(args[only]); err != nil {
			return nil, v.explain(args, err)
		}
	} else {
		if err := root.ApplyDefaults(&args); err != nil {
			return nil, fmt.Errorf("apply defaults: %w", err)
		}
		if err := root.Validate(map[string]any(args)); err != nil {
			return nil, v.explain(args, err)
		}
	}

	for _, f := range v.schema.Fields {
		if only != "" && f.Name != only {
			continue
		}
		value, ok := args[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case entity.TypeInteger:
			n := value.(float64)
			if n < math.MinInt64 || n >= math.MaxInt64 {
				return nil, &entity.ValidationError{Field: f.Name, Constraint: "out of int64 range"}
			}
			args[f.Name] = int64(n)
		case entity.TypeString:
			if f.Format == entity.FormatURL {
				if err := checkURL(value.(string)); err != nil {
					return nil, &entity.ValidationError{Field: f.Name, Constraint: err.Error()}
				}
			}
		}
	}
	return args, nil
}

// normalize copies raw into the shape encoding/json would produce: numbers as float64,
// arrays as []any. Null values are dropped.
func (v *Validator) normalize(raw map[string]any) (entity.Arguments, error) {
	args := make(entity.Arguments, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		normalized, err := normalizeValue(value)
		if err != nil {
			return nil, &entity.ValidationError{Field: key, Constraint: err.Error()}
		}
		args[key] = normalized
	}
	return args, nil
}

func normalizeValue(value any) (any, error) {
	if _, isNumber := value.(json.Number); isNumber || isNumeric(value) {
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("invalid number %v", value)
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("expected finite number")
		}
		return n, nil
	}

	switch s := value.(type) {
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, nil
	case []any:
		out := make([]any, len(s))
		for i, item := range s {
			n, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	}
	return value, nil
}

// explain attributes a schema violation to the first offending field, checking in the same
// order callers read the schema: unknown keys, then declared fields.
func (v *Validator) explain(args entity.Arguments, cause error) error {
	unknown := make([]string, 0)
	for key := range args {
		if _, ok := v.schema.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return &entity.ValidationError{Field: unknown[0], Constraint: "unknown field"}
	}

	for _, f := range v.schema.Fields {
		value, present := args[f.Name]
		if !present {
			if f.Required {
				return &entity.ValidationError{Field: f.Name, Constraint: "required"}
			}
			continue
		}
		err := v.fields[f.Name].Validate(value)
		if err == nil {
			continue
		}
		if items, ok := value.([]any); ok && v.items[f.Name] != nil {
			for i, item := range items {
				if itemErr := v.items[f.Name].Validate(item); itemErr != nil {
					return &entity.ValidationError{Field: fmt.Sprintf("%s[%d]", f.Name, i), Constraint: constraint(itemErr)}
				}
			}
		}
		return &entity.ValidationError{Field: f.Name, Constraint: constraint(err)}
	}

	return &entity.ValidationError{Constraint: constraint(cause)}
}

func constraint(err error) string {
	return strings.TrimPrefix(err.Error(), "validating root: ")
}

func resolve(schema map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(&jsonschema.ResolveOptions{})
}

func checkURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: empty", entity.ErrInvalidURL)
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidURL, err)
	}
	if !slices.Contains(allowedURLSchemes, strings.ToLower(u.Scheme)) {
		return fmt.Errorf("%w: scheme %q not allowed", entity.ErrInvalidURL, u.Scheme)
	}
	return nil
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
