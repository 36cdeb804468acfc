package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leduxro-prog/erp-core/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// templateSchema constrains template documents arriving over the API before
// they are decoded into models.WorkflowTemplate.
var templateSchema = map[string]any{
	"type":     "object",
	"required": []string{"name", "entity_type", "steps"},
	// IDs are assigned on creation; a document carrying one is an attempted
	// in-place edit of a published version.
	"not": map[string]any{"required": []string{"id"}},
	"properties": map[string]any{
		"name": map[string]any{
			"type":      "string",
			"minLength": 3,
		},
		"entity_type": map[string]any{
			"type":      "string",
			"minLength": 1,
		},
		"version": map[string]any{
			"type":    "integer",
			"minimum": 1,
		},
		"is_active": map[string]any{
			"type": "boolean",
		},
		"created_by": map[string]any{
			"type": "string",
		},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "name", "approver_id"},
				"properties": map[string]any{
					"id":          map[string]any{"type": "string", "minLength": 1},
					"name":        map[string]any{"type": "string", "minLength": 1},
					"approver_id": map[string]any{"type": "string", "minLength": 1},
					"timeout_hours": map[string]any{
						"type":    "integer",
						"minimum": 0,
					},
				},
			},
		},
	},
}

// DecodeTemplateDocument validates a raw template document against the JSON
// Schema and decodes it. Step IDs must be unique within the template.
func DecodeTemplateDocument(raw []byte) (*models.WorkflowTemplate, error) {
	schemaLoader := gojsonschema.NewGoLoader(templateSchema)
	dataLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateDocument, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrTemplateDocument, strings.Join(details, "; "))
	}

	var template models.WorkflowTemplate
	if err := json.Unmarshal(raw, &template); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateDocument, err)
	}

	if err := validateStepIDs(template.Steps); err != nil {
		return nil, err
	}

	return &template, nil
}

func validateStepIDs(steps []models.TemplateStep) error {
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %s", ErrTemplateDocument, step.ID)
		}

		seen[step.ID] = struct{}{}
	}

	return nil
}
