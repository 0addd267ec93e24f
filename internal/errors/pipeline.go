package errors

import (
	"fmt"
	"strings"
)

// InvalidInputError is raised when client-supplied data is missing or malformed
type InvalidInputError struct {
	*FoodLogError
}

// NewInvalidInputError creates a new invalid input error. The message is safe
// to show to API clients.
func NewInvalidInputError(stage Stage, message string) *InvalidInputError {
	return &InvalidInputError{
		FoodLogError: &FoodLogError{
			Message: message,
			Kind:    KindInvalidInput,
			Context: &ErrorContext{
				Operation: "Input validation",
				Component: string(stage),
			},
			ExitCode: ExitValidationError,
		},
	}
}

// ProviderUnavailableError is raised on transport failures, timeouts and 5xx
// responses from the completion provider
type ProviderUnavailableError struct {
	*FoodLogError
}

// NewProviderUnavailableError creates a new provider unavailable error
func NewProviderUnavailableError(provider string, statusCode int, cause error) *ProviderUnavailableError {
	details := map[string]interface{}{
		"provider": provider,
	}
	if statusCode != 0 {
		details["status_code"] = statusCode
	}

	return &ProviderUnavailableError{
		FoodLogError: &FoodLogError{
			Message: fmt.Sprintf("Completion provider unavailable: %s", provider),
			Kind:    KindProviderUnavailable,
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Completion call",
				Component: string(StageInvoker),
				Details:   details,
				Suggestions: []string{
					"Check network connectivity to the provider endpoint",
					"Increase llm.timeout if requests are timing out",
					"Try again later (service may be unavailable)",
				},
				Recoverable: true,
			},
			ExitCode: ExitLLMError,
		},
	}
}

// ProviderRejectedError is raised when the provider answers with a well-formed 4xx
type ProviderRejectedError struct {
	*FoodLogError
}

// NewProviderRejectedError creates a new provider rejected error
func NewProviderRejectedError(provider string, statusCode int, reason string) *ProviderRejectedError {
	return &ProviderRejectedError{
		FoodLogError: &FoodLogError{
			Message: fmt.Sprintf("Completion provider rejected the request: %s (status %d)", provider, statusCode),
			Kind:    KindProviderRejected,
			Context: &ErrorContext{
				Operation: "Completion call",
				Component: string(StageInvoker),
				Details: map[string]interface{}{
					"provider":    provider,
					"status_code": statusCode,
					"reason":      reason,
				},
				Suggestions: []string{
					"Check that the API key is valid",
					"Check the account quota",
					"Check that the model name is correct",
				},
			},
			ExitCode: ExitLLMError,
		},
	}
}

// NoStructuredDataError is raised when a completion carries neither a structured
// payload nor a JSON-parseable text body
type NoStructuredDataError struct {
	*FoodLogError
}

// NewNoStructuredDataError creates a new no structured data error
func NewNoStructuredDataError(reason, rawOutput string) *NoStructuredDataError {
	return &NoStructuredDataError{
		FoodLogError: &FoodLogError{
			Message: fmt.Sprintf("No structured data in completion: %s", reason),
			Kind:    KindNoStructuredData,
			Context: &ErrorContext{
				Operation: "Response extraction",
				Component: string(StageExtractor),
				Details: map[string]interface{}{
					"reason":     reason,
					"raw_output": rawOutput,
				},
			},
			ExitCode: ExitExtractionError,
		},
	}
}

// MalformedJSONError is raised when the extracted payload does not parse as JSON
type MalformedJSONError struct {
	*FoodLogError
}

// NewMalformedJSONError creates a new malformed JSON error
func NewMalformedJSONError(raw string, cause error) *MalformedJSONError {
	return &MalformedJSONError{
		FoodLogError: &FoodLogError{
			Message: "Extracted payload is not valid JSON",
			Kind:    KindMalformedJSON,
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Record validation",
				Component: string(StageValidator),
				Details: map[string]interface{}{
					"raw_output": raw,
				},
			},
			ExitCode: ExitExtractionError,
		},
	}
}

// SchemaViolationError is raised when the payload does not satisfy the nutrition schema
type SchemaViolationError struct {
	*FoodLogError
	Violations []string
}

// NewSchemaViolationError creates a new schema violation error
func NewSchemaViolationError(raw string, violations []string) *SchemaViolationError {
	return &SchemaViolationError{
		FoodLogError: &FoodLogError{
			Message: fmt.Sprintf("Nutrition payload violates schema: %s", strings.Join(violations, "; ")),
			Kind:    KindSchemaViolation,
			Context: &ErrorContext{
				Operation: "Record validation",
				Component: string(StageValidator),
				Details: map[string]interface{}{
					"violations": violations,
					"raw_output": raw,
				},
			},
			ExitCode: ExitExtractionError,
		},
		Violations: violations,
	}
}

// StorageUnavailableError is raised when the object store upload fails
type StorageUnavailableError struct {
	*FoodLogError
}

// NewStorageUnavailableError creates a new storage unavailable error
func NewStorageUnavailableError(bucket string, cause error) *StorageUnavailableError {
	return &StorageUnavailableError{
		FoodLogError: &FoodLogError{
			Message: fmt.Sprintf("Object storage upload failed for bucket %s", bucket),
			Kind:    KindStorageUnavailable,
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Image upload",
				Component: string(StageStorage),
				Details: map[string]interface{}{
					"bucket": bucket,
				},
				Suggestions: []string{
					"Check storage credentials and bucket permissions",
					"Check the storage endpoint",
				},
				Recoverable: true,
			},
			ExitCode: ExitStorageError,
		},
	}
}

// RawOutputOf returns the provider output recorded on an extraction failure
func RawOutputOf(err error) string {
	base, ok := AsFoodLogError(err)
	if !ok {
		return ""
	}
	raw, _ := base.Context.Detail("raw_output").(string)
	return raw
}
