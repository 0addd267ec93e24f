package errors

import "net/http"

type ExitCode int

const (
	ExitSuccess         ExitCode = 0
	ExitGeneralError    ExitCode = 1
	ExitConfigError     ExitCode = 2
	ExitValidationError ExitCode = 3
	ExitLLMError        ExitCode = 4
	ExitExtractionError ExitCode = 5
	ExitStorageError    ExitCode = 6
)

func (e ExitCode) Int() int {
	return int(e)
}

// Kind classifies an application error
type Kind string

const (
	KindInternal            Kind = "internal"
	KindConfig              Kind = "config"
	KindInvalidInput        Kind = "invalid_input"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindProviderRejected    Kind = "provider_rejected"
	KindNoStructuredData    Kind = "no_structured_data"
	KindMalformedJSON       Kind = "malformed_json"
	KindSchemaViolation     Kind = "schema_violation"
	KindStorageUnavailable  Kind = "storage_unavailable"
)

// HTTPStatus returns the status code used for errors of this kind.
// Only client input problems are reported as 4xx.
func (k Kind) HTTPStatus() int {
	if k == KindInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ExitCode returns the CLI exit code used for errors of this kind
func (k Kind) ExitCode() ExitCode {
	switch k {
	case KindConfig:
		return ExitConfigError
	case KindInvalidInput:
		return ExitValidationError
	case KindProviderUnavailable, KindProviderRejected:
		return ExitLLMError
	case KindNoStructuredData, KindMalformedJSON, KindSchemaViolation:
		return ExitExtractionError
	case KindStorageUnavailable:
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}

// Stage names a step of the nutrition pipeline
type Stage string

const (
	StageHandler       Stage = "handler"
	StagePromptBuilder Stage = "prompt_builder"
	StageInvoker       Stage = "completion_invoker"
	StageExtractor     Stage = "response_extractor"
	StageValidator     Stage = "record_validator"
	StageStorage       Stage = "object_storage"
)
