package nutrition

import (
	"testing"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
	testHelpers "github.com/user/foodlog/internal/testing"
)

func TestExtract_StructuredPath(t *testing.T) {
	resp := testHelpers.NewToolCallResponse(ToolRecord, testHelpers.TurkeySandwichJSON)

	raw, path, err := Extract(resp, ToolRecord)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != PathStructured {
		t.Errorf("Expected structured path, got %s", path)
	}
	if raw != testHelpers.TurkeySandwichJSON {
		t.Errorf("Expected arguments verbatim, got '%s'", raw)
	}
}

func TestExtract_StructuredPath_DecodedArgumentsOnly(t *testing.T) {
	resp := llmtypes.CompletionResponse{ToolCalls: []llmtypes.ToolCall{{
		Name:      ToolRecord,
		Arguments: map[string]interface{}{"calories": 100.0},
	}}}

	raw, path, err := Extract(resp, ToolRecord)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != PathStructured || raw != `{"calories":100}` {
		t.Errorf("Expected re-encoded arguments, got %s '%s'", path, raw)
	}
}

func TestExtract_SkipsOtherTools(t *testing.T) {
	resp := llmtypes.CompletionResponse{
		Content: testHelpers.TurkeySandwichJSON,
		ToolCalls: []llmtypes.ToolCall{
			{Name: "lookup_food", RawArguments: `{"query":"turkey"}`},
		},
	}

	raw, path, err := Extract(resp, ToolRecord)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != PathText || raw != testHelpers.TurkeySandwichJSON {
		t.Errorf("Expected text path fallback, got %s '%s'", path, raw)
	}
}

func TestExtract_TextPath(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare json", "  " + testHelpers.TurkeySandwichJSON + "\n", testHelpers.TurkeySandwichJSON},
		{"fenced", testHelpers.FencedRecordText, testHelpers.TurkeySandwichJSON},
		{"surrounded by prose", "Sure! " + testHelpers.NamedRecordJSON + " Let me know.", testHelpers.NamedRecordJSON},
		{"bare array", `[{"name":"a","calories":1,"macros":{"protein":0,"carbs":0,"fats":0}}]`, `[{"name":"a","calories":1,"macros":{"protein":0,"carbs":0,"fats":0}}]`},
		{"array in prose", `Items: [1, 2] done`, `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, path, err := Extract(testHelpers.NewTextResponse(tt.content), ToolRecord)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if path != PathText {
				t.Errorf("Expected text path, got %s", path)
			}
			if raw != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, raw)
			}
		})
	}
}

func TestExtract_NoStructuredData(t *testing.T) {
	tests := []struct {
		name string
		resp llmtypes.CompletionResponse
	}{
		{"empty", llmtypes.CompletionResponse{}},
		{"prose", testHelpers.NewTextResponse(testHelpers.FreeformAnalysis)},
		{"broken braces", testHelpers.NewTextResponse("about {calories: 450} total")},
		{"scalar json", testHelpers.NewTextResponse("450")},
		{"wrong tool and no text", testHelpers.NewToolCallResponse("other", "{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Extract(tt.resp, ToolRecord)
			if errors.KindOf(err) != errors.KindNoStructuredData {
				t.Fatalf("Expected no structured data, got %v", err)
			}
			if errors.StageOf(err) != errors.StageExtractor {
				t.Errorf("Expected stage %s, got %s", errors.StageExtractor, errors.StageOf(err))
			}
		})
	}
}

func TestExtract_NoStructuredData_KeepsRawOutput(t *testing.T) {
	_, _, err := Extract(testHelpers.NewTextResponse(testHelpers.FreeformAnalysis), ToolRecord)

	if errors.RawOutputOf(err) != testHelpers.FreeformAnalysis {
		t.Errorf("Expected raw output recorded, got '%s'", errors.RawOutputOf(err))
	}
}
