package entity

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
)

// FormatURL restricts a string field to navigable URLs.
const FormatURL = "url"

// Field declares one accepted argument. Zero values mean "unconstrained".
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Default     any

	Enum      []string
	Min       *float64
	Max       *float64
	MinLength int
	MaxLength int
	Format    string

	// Items describes array elements. Only primitive item types are supported.
	Items *Field
}

// Schema is the parameter shape of a tool. Field order is preserved for listings.
type Schema struct {
	Fields []Field
}

func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy so that registered descriptors cannot be mutated by their authors.
func (s Schema) Clone() Schema {
	fields := make([]Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = f.clone()
	}
	return Schema{Fields: fields}
}

func (f Field) clone() Field {
	out := f
	if f.Enum != nil {
		out.Enum = append([]string(nil), f.Enum...)
	}
	if f.Min != nil {
		v := *f.Min
		out.Min = &v
	}
	if f.Max != nil {
		v := *f.Max
		out.Max = &v
	}
	if f.Items != nil {
		items := f.Items.clone()
		out.Items = &items
	}
	return out
}

// JSONSchema renders the schema as a JSON Schema object, the format LLM and MCP clients expect.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0)
	for _, f := range s.Fields {
		properties[f.Name] = f.JSONSchema()
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// JSONSchema renders one field. Array length limits become minItems/maxItems.
func (f Field) JSONSchema() map[string]any {
	out := map[string]any{"type": string(f.Type)}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if f.Default != nil {
		out["default"] = f.Default
	}
	if len(f.Enum) > 0 {
		out["enum"] = f.Enum
	}
	if f.Min != nil {
		out["minimum"] = *f.Min
	}
	if f.Max != nil {
		out["maximum"] = *f.Max
	}
	minKey, maxKey := "minLength", "maxLength"
	if f.Type == TypeArray {
		minKey, maxKey = "minItems", "maxItems"
	}
	if f.MinLength > 0 {
		out[minKey] = f.MinLength
	}
	if f.MaxLength > 0 {
		out[maxKey] = f.MaxLength
	}
	if f.Format == FormatURL {
		out["format"] = "uri"
	}
	if f.Items != nil {
		out["items"] = f.Items.JSONSchema()
	}
	return out
}

// Arguments are validated tool arguments with defaults applied.
type Arguments map[string]any

func Float(v float64) *float64 {
	return &v
}
