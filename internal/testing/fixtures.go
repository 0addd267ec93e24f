package testing

import "encoding/base64"

// Canonical model payloads used across pipeline, handler and CLI tests
const (
	TurkeySandwichJSON = `{"calories":450,"macros":{"protein":25,"carbs":40,"fats":18}}`

	NamedRecordJSON = `{"name":"Grilled chicken salad","calories":380,"macros":{"protein":35,"carbs":12,"fats":20}}`

	ItemsJSON = `{"items":[` +
		`{"name":"Scrambled eggs","calories":180,"macros":{"protein":12,"carbs":2,"fats":14}},` +
		`{"name":"Toast","calories":140,"macros":{"protein":4,"carbs":24,"fats":3}}` +
		`]}`

	StringNumbersJSON = `{"calories":"450","macros":{"protein":"20","carbs":" 40.5 ","fats":"18g"}}`

	NegativeFatsJSON = `{"calories":450,"macros":{"protein":25,"carbs":40,"fats":-3}}`

	FreeformAnalysis = "This looks like a bowl of oatmeal with berries, roughly 300 calories."

	FencedRecordText = "Here is the estimate:\n```json\n" + TurkeySandwichJSON + "\n```\nEnjoy!"
)

// tinyPNG is a valid 1x1 transparent PNG
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

// TinyPNG returns the bytes of a 1x1 PNG image
func TinyPNG() []byte {
	data, _ := base64.StdEncoding.DecodeString(tinyPNG)
	return data
}

// SampleQuestionnaire returns answers shaped like the onboarding questionnaire
func SampleQuestionnaire() map[string]interface{} {
	return map[string]interface{}{
		"age":            31,
		"sex":            "female",
		"height_cm":      168,
		"weight_kg":      64,
		"activity_level": "moderate",
		"goal":           "maintain",
	}
}
