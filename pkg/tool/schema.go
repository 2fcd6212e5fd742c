package tool

// Schema is the structural subset of JSON Schema sufficient to describe
// tool parameters and round-trip through every provider's parameter format.
type Schema struct {
	Type       string                    `json:"type"`
	Properties map[string]SchemaProperty `json:"properties,omitempty"`
	Required   []string                  `json:"required,omitempty"`
}

// SchemaProperty describes one schema property, possibly nested.
type SchemaProperty struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description,omitempty"`
	Enum        []string                  `json:"enum,omitempty"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`

	// Numeric bounds; nil means unbounded.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// String bounds; nil means unbounded.
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`
}

// ObjectSchema is a convenience constructor for the common top-level shape.
func ObjectSchema(properties map[string]SchemaProperty, required ...string) Schema {
	return Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
