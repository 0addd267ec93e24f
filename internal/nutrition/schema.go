package nutrition

import (
	"github.com/user/foodlog/internal/llmtypes"
)

// Tool names offered to the provider
const (
	ToolRecord      = "record_nutrition"
	ToolRecordItems = "record_nutrition_items"
)

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"description": description,
	}
}

// recordSchema describes one NutritionRecord. Name is declared when withName
// is set and additionally required when nameRequired is set.
func recordSchema(withName, nameRequired bool) map[string]interface{} {
	properties := map[string]interface{}{
		"calories": numberProperty("Total energy in kilocalories"),
		"macros": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"protein": numberProperty("Protein in grams"),
				"carbs":   numberProperty("Carbohydrates in grams"),
				"fats":    numberProperty("Fats in grams"),
			},
			"required": []interface{}{"protein", "carbs", "fats"},
		},
	}
	required := []interface{}{"calories", "macros"}

	if withName {
		properties["name"] = map[string]interface{}{
			"type":        "string",
			"description": "Short name of the food or meal",
		}
		if nameRequired {
			properties["name"].(map[string]interface{})["minLength"] = 1
			required = append([]interface{}{"name"}, required...)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// listSchema describes the object wrapping a NutritionRecordList
func listSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"items": map[string]interface{}{
				"type":     "array",
				"minItems": 1,
				"items":    recordSchema(true, true),
			},
		},
		"required": []interface{}{"items"},
	}
}

// documentSchema returns the schema a validated document must satisfy
func documentSchema(shape Shape) map[string]interface{} {
	if shape == ShapeList {
		return listSchema()
	}
	return recordSchema(true, false)
}

// ToolFor returns the function definition the provider must call for mode and shape
func ToolFor(mode Mode, shape Shape) llmtypes.ToolDefinition {
	if shape == ShapeList {
		return llmtypes.ToolDefinition{
			Name:        ToolRecordItems,
			Description: "Record the calories and macronutrients of every distinct food item",
			Parameters:  listSchema(),
		}
	}

	description := "Record the calories and macronutrients of the whole meal"
	withName := true
	if mode == ModeProfile {
		description = "Record the daily calorie needs and macronutrient targets"
		withName = false
	}

	return llmtypes.ToolDefinition{
		Name:        ToolRecord,
		Description: description,
		Parameters:  recordSchema(withName, false),
	}
}
