package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docuparse-client/internal/domain/ports/adapter"
)

// FieldsValidator enforces the strict commit contract: every field needs a
// non-empty name and a data type from the server's vocabulary. The default
// (lax) mode ships no validator at all and lets the server judge the payload.
type FieldsValidator struct {
	schema *jsonschema.Schema
}

// New compiles the payload schema. fieldTypes is the server's data-type
// vocabulary; an empty list leaves data_type unconstrained beyond presence.
func New(fieldTypes []string) (*FieldsValidator, error) {
	dataType := map[string]any{"type": "string", "minLength": 1}
	if len(fieldTypes) > 0 {
		enum := make([]any, len(fieldTypes))
		for i, t := range fieldTypes {
			enum[i] = t
		}
		dataType["enum"] = enum
	}
	schemaMap := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string", "minLength": 1},
						"data_type":   dataType,
						"description": map[string]any{"type": "string"},
					},
					"required": []string{"name", "data_type"},
				},
			},
			"template_id": map[string]any{"type": "string"},
			"processing_modes": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string", "minLength": 1},
			},
		},
		"required": []string{"fields"},
	}

	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fields.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &FieldsValidator{schema: schema}, nil
}

// Validate checks a commit payload against the schema.
func (v *FieldsValidator) Validate(payload adapter.FieldsPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("fields payload does not match schema: %w", err)
	}
	return nil
}
