package llm

import "github.com/joseph-ayodele/pantry-tracker/constants"

// BuildIngredientsJSONSchema returns the JSON-Schema (draft 2020-12 subset) a model
// reply must satisfy: an array of closed ingredient objects.
func BuildIngredientsJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":           map[string]any{"type": "string", "minLength": 1, "pattern": `\S`},
			"quantity":       map[string]any{"type": "number", "exclusiveMinimum": 0},
			"unit":           map[string]any{"type": "string", "enum": constants.UnitsAsStringSlice()},
			"expirationDate": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"category":       map[string]any{"type": "string", "enum": constants.AsStringSlice()},
			"notes":          map[string]any{"type": "string"},
		},
		"required": []string{"name", "quantity", "unit", "expirationDate", "category"},
	}

	return map[string]any{
		"type":  "array",
		"items": item,
	}
}
