package coach

import "github.com/placify/placify/internal/llm"

// PlanSchema is the structured output requested from the model.
var PlanSchema = &llm.Schema{
	Name:        "practice-plan",
	Description: "A short weekly practice plan for placement test preparation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Two or three sentences on where the student stands",
			},
			"steps": map[string]any{
				"type":        "array",
				"description": "Three to five practice steps, most important first",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"section": map[string]any{
							"type":        "string",
							"description": "Test section the step targets",
						},
						"focus": map[string]any{
							"type":        "string",
							"description": "What to practice (5-15 words)",
						},
						"minutes": map[string]any{
							"type":        "integer",
							"description": "Suggested daily minutes",
						},
					},
					"required":             []any{"section", "focus", "minutes"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "steps"},
		"additionalProperties": false,
	},
}
