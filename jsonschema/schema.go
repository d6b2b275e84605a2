package jsonschema

// Draft is the dialect written into exported root schemas.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is the subset of JSON Schema needed to describe profile input.
type Schema struct {
	// Core
	Dialect     string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Const       any    `json:"const,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Composition
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`
	If    *Schema   `json:"if,omitempty"`
	Then  *Schema   `json:"then,omitempty"`
}

// property returns the schema of name, creating it on first use.
func (s *Schema) property(name string) *Schema {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	p, ok := s.Properties[name]
	if !ok {
		p = &Schema{}
		s.Properties[name] = p
	}
	return p
}

// nonEmpty rejects the empty string.
func nonEmpty() *Schema { return &Schema{Not: &Schema{Const: ""}} }

// isSet rejects null and the empty string.
func isSet() *Schema { return &Schema{Not: &Schema{Enum: []any{nil, ""}}} }

func requiredSet(name string) *Schema {
	return &Schema{Required: []string{name}, Properties: map[string]*Schema{name: isSet()}}
}

func anyPresent(names []string) *Schema {
	s := &Schema{}
	for _, n := range names {
		s.AnyOf = append(s.AnyOf, &Schema{Required: []string{n}})
	}
	return s
}
