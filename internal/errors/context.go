package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorContext carries diagnostic information for logs and CLI output.
// It is never rendered into HTTP response bodies.
type ErrorContext struct {
	Operation   string                 // The operation that failed
	Component   string                 // Pipeline stage or collaborator that failed
	Details     map[string]interface{} // Additional details about the error
	Suggestions []string               // Actionable suggestions for the operator
	Recoverable bool                   // Whether another attempt may succeed
}

// Format returns a formatted string representation of the error context
func (ec *ErrorContext) Format() string {
	var sb strings.Builder

	if ec.Operation != "" || ec.Component != "" {
		sb.WriteString("\nWhat happened:\n")
		switch {
		case ec.Operation != "" && ec.Component != "":
			sb.WriteString(fmt.Sprintf("  %s failed in %s.\n", ec.Operation, ec.Component))
		case ec.Operation != "":
			sb.WriteString(fmt.Sprintf("  %s failed.\n", ec.Operation))
		default:
			sb.WriteString(fmt.Sprintf("  Failure in %s.\n", ec.Component))
		}
	}

	if len(ec.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range ec.detailKeys() {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", key, ec.Details[key]))
		}
	}

	if len(ec.Suggestions) > 0 {
		sb.WriteString("\nWhat you can do:\n")
		for i, suggestion := range ec.Suggestions {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, suggestion))
		}
	}

	if ec.Recoverable {
		sb.WriteString("\nRecoverable: Yes\n")
	}

	return sb.String()
}

func (ec *ErrorContext) detailKeys() []string {
	keys := make([]string, 0, len(ec.Details))
	for key := range ec.Details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Detail returns a single detail value, or nil
func (ec *ErrorContext) Detail(key string) interface{} {
	if ec == nil || ec.Details == nil {
		return nil
	}
	return ec.Details[key]
}
