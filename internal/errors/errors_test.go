package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatus_ByKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", NewInvalidInputError(StageHandler, "Text input is required"), http.StatusBadRequest},
		{"provider unavailable", NewProviderUnavailableError("openai", 503, nil), http.StatusInternalServerError},
		{"provider rejected", NewProviderRejectedError("openai", 401, "bad key"), http.StatusInternalServerError},
		{"no structured data", NewNoStructuredDataError("empty", ""), http.StatusInternalServerError},
		{"malformed json", NewMalformedJSONError("{", stderrors.New("eof")), http.StatusInternalServerError},
		{"schema violation", NewSchemaViolationError("{}", []string{"calories: required"}), http.StatusInternalServerError},
		{"storage", NewStorageUnavailableError("bucket", stderrors.New("denied")), http.StatusInternalServerError},
		{"foreign", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStageOf_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("estimate: %w", NewNoStructuredDataError("no tool call", "hello"))

	if stage := StageOf(err); stage != StageExtractor {
		t.Errorf("Expected stage %s, got %s", StageExtractor, stage)
	}
	if kind := KindOf(err); kind != KindNoStructuredData {
		t.Errorf("Expected kind %s, got %s", KindNoStructuredData, kind)
	}
	if raw := RawOutputOf(err); raw != "hello" {
		t.Errorf("Expected raw output 'hello', got '%s'", raw)
	}
}

func TestStageOf_ForeignError(t *testing.T) {
	if stage := StageOf(stderrors.New("x")); stage != "" {
		t.Errorf("Expected empty stage, got %s", stage)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewProviderUnavailableError("openai", 0, stderrors.New("timeout"))) {
		t.Error("Expected provider unavailable to be retryable")
	}
	if IsRetryable(NewSchemaViolationError("{}", []string{"x"})) {
		t.Error("Expected schema violation not to be retryable")
	}
	if IsRetryable(NewProviderRejectedError("openai", 429, "quota")) {
		t.Error("Expected provider rejection not to be retryable")
	}
}

func TestStdlibAs_TypedWrapper(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewSchemaViolationError("{}", []string{"macros.fats: must be >= 0"}))

	var sv *SchemaViolationError
	if !stderrors.As(err, &sv) {
		t.Fatal("Expected errors.As to find *SchemaViolationError")
	}
	if len(sv.Violations) != 1 {
		t.Errorf("Expected 1 violation, got %d", len(sv.Violations))
	}
}

func TestUnwrap_Cause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewProviderUnavailableError("openai", 0, cause)

	if !stderrors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected message to include cause, got '%s'", err.Error())
	}
}

func TestExitCodeOf(t *testing.T) {
	if code := ExitCodeOf(nil); code != ExitSuccess {
		t.Errorf("Expected %d, got %d", ExitSuccess, code)
	}
	if code := ExitCodeOf(NewMissingEnvVarError("FOODLOG_LLM_API_KEY", "key")); code != ExitConfigError {
		t.Errorf("Expected %d, got %d", ExitConfigError, code)
	}
	if code := ExitCodeOf(stderrors.New("x")); code != ExitGeneralError {
		t.Errorf("Expected %d, got %d", ExitGeneralError, code)
	}
}

func TestMissingEnvVarError_SuggestsYAMLKey(t *testing.T) {
	err := NewMissingEnvVarError("FOODLOG_LLM_API_KEY", "API key")
	msg := err.GetUserMessage()

	if !strings.Contains(msg, "llm.api_key") {
		t.Errorf("Expected suggestion to mention llm.api_key, got:\n%s", msg)
	}
}

func TestErrorContext_Format_SortedDetails(t *testing.T) {
	ec := &ErrorContext{
		Operation: "Completion call",
		Component: "completion_invoker",
		Details: map[string]interface{}{
			"status_code": 503,
			"provider":    "openai",
		},
		Recoverable: true,
	}

	out := ec.Format()
	if strings.Index(out, "provider") > strings.Index(out, "status_code") {
		t.Errorf("Expected details sorted by key, got:\n%s", out)
	}
	if !strings.Contains(out, "Recoverable: Yes") {
		t.Errorf("Expected recoverable marker, got:\n%s", out)
	}
}
