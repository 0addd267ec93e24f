package nutrition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/user/foodlog/internal/errors"
	"github.com/xeipuuv/gojsonschema"
)

// numericString matches numbers models emit as strings: "20", " 20.5 ", "20g", "450 kcal"
var numericString = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*(g|grams?|kcal|cal|calories)?\s*$`)

var numericFields = []string{"calories", "macros.protein", "macros.carbs", "macros.fats"}

// Validator checks extracted payloads against the NutritionRecord schema
type Validator struct {
	schemas map[Shape]*gojsonschema.Schema
}

// NewValidator compiles the record schemas
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[Shape]*gojsonschema.Schema)}
	for _, shape := range []Shape{ShapeSingle, ShapeList} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(documentSchema(shape)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", shape, err)
		}
		v.schemas[shape] = schema
	}
	return v, nil
}

// MustNewValidator is NewValidator for package-level and test use
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate parses raw, coerces numeric strings and checks the result against
// the schema for shape. Either every record is valid or an error is returned.
func (v *Validator) Validate(raw string, shape Shape) (*Estimate, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, errors.NewMalformedJSONError(raw, err)
	}

	doc, err = normalizeShape(doc, shape)
	if err != nil {
		return nil, errors.NewSchemaViolationError(raw, []string{err.Error()})
	}

	var violations []string
	if shape == ShapeList {
		items, _ := doc.(map[string]interface{})["items"].([]interface{})
		for i, item := range items {
			violations = append(violations, coerceRecord(item, fmt.Sprintf("items.%d.", i))...)
		}
	} else {
		violations = coerceRecord(doc, "")
	}

	if len(violations) == 0 {
		result, err := v.schemas[shape].Validate(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, errors.NewSchemaViolationError(raw, []string{err.Error()})
		}
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		return nil, errors.NewSchemaViolationError(raw, violations)
	}

	return buildEstimate(doc, shape)
}

// decodeDocument parses exactly one JSON value, keeping numbers exact
func decodeDocument(raw string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return doc, nil
}

// normalizeShape returns the document in canonical form: a record object for
// single, an {"items": [...]} object for list
func normalizeShape(doc interface{}, shape Shape) (interface{}, error) {
	switch shape {
	case ShapeList:
		switch d := doc.(type) {
		case []interface{}:
			return map[string]interface{}{"items": d}, nil
		case map[string]interface{}:
			if _, ok := d["items"].([]interface{}); ok {
				return d, nil
			}
			return nil, fmt.Errorf("(root): expected an array of records or an object with an items array")
		}
		return nil, fmt.Errorf("(root): expected an array of records")
	default:
		if _, ok := doc.(map[string]interface{}); !ok {
			return nil, fmt.Errorf("(root): expected a record object")
		}
		return doc, nil
	}
}

// coerceRecord converts the numeric fields of one record in place and returns
// a violation for every value that cannot be a finite number
func coerceRecord(record interface{}, prefix string) []string {
	obj, ok := record.(map[string]interface{})
	if !ok {
		// Left to the schema check, which reports the type mismatch
		return nil
	}

	var violations []string
	for _, field := range numericFields {
		parent, key := obj, field
		if i := strings.IndexByte(field, '.'); i >= 0 {
			nested, ok := obj[field[:i]].(map[string]interface{})
			if !ok {
				continue
			}
			parent, key = nested, field[i+1:]
		}

		value, present := parent[key]
		if !present {
			continue
		}

		n, err := coerceNumber(value)
		if err != nil {
			violations = append(violations, fmt.Sprintf("%s%s: %v", prefix, field, err))
			continue
		}
		if n != nil {
			parent[key] = *n
		}
	}
	return violations
}

// coerceNumber returns the float value of a number or numeric string. It returns
// nil for other types so the schema check can report them.
func coerceNumber(value interface{}) (*float64, error) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, fmt.Errorf("must be a finite number")
		}
		f = parsed
	case string:
		m := numericString.FindStringSubmatch(v)
		if m == nil {
			return nil, fmt.Errorf("must be a number, got %q", v)
		}
		parsed, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("must be a finite number")
		}
		f = parsed
	default:
		return nil, nil
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("must be a finite number")
	}
	return &f, nil
}

// buildEstimate decodes the validated document into typed records
func buildEstimate(doc interface{}, shape Shape) (*Estimate, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewMalformedJSONError("", err)
	}

	if shape == ShapeList {
		var list struct {
			Items []Record `json:"items"`
		}
		if err := json.NewDecoder(bytes.NewReader(data)).Decode(&list); err != nil {
			return nil, errors.NewMalformedJSONError(string(data), err)
		}
		return &Estimate{Shape: ShapeList, Items: list.Items}, nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.NewMalformedJSONError(string(data), err)
	}
	return &Estimate{Shape: ShapeSingle, Record: &record}, nil
}
