package models

import "strings"

// JSONSchema represents a JSON Schema for configuration validation.
type JSONSchema struct {
	Schema               string               `json:"$schema,omitempty"`
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`
	Format      string `json:"format,omitempty"`
}

// schemaTypes maps action input types onto JSON Schema types. Unknown types are unconstrained.
var schemaTypes = map[string]string{
	"string":  "string",
	"text":    "string",
	"cron":    "string",
	"number":  "number",
	"float":   "number",
	"integer": "integer",
	"int":     "integer",
	"boolean": "boolean",
	"bool":    "boolean",
	"object":  "object",
	"json":    "object",
	"array":   "array",
	"list":    "array",
}

// SchemaType returns the JSON Schema type for an action input type, or "" if unconstrained.
// Input types are matched case-insensitively.
func SchemaType(inputType string) string {
	return schemaTypes[strings.ToLower(strings.TrimSpace(inputType))]
}

// InputSchema builds the JSON Schema a node's configuration must satisfy. Inputs for which skip
// returns true are left out entirely; the wiring layer uses it for inputs whose value comes from
// a reference or a hidden edge.
func InputSchema(action *ActionDefinition, skip func(name string) bool) *JSONSchema {
	schema := &JSONSchema{
		Schema:     "http://json-schema.org/draft-07/schema#",
		Type:       "object",
		Title:      action.Name,
		Properties: make(map[string]*Property),
	}

	for _, in := range action.EffectiveInputs() {
		if skip != nil && skip(in.Name) {
			continue
		}

		schema.Properties[in.Name] = &Property{
			Type:        SchemaType(in.Type),
			Description: in.Description,
			Enum:        in.Choices(),
			Default:     in.Default,
		}

		if in.Required {
			schema.Required = append(schema.Required, in.Name)
		}
	}

	return schema
}
