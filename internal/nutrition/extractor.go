package nutrition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
)

// ExtractionPath records where a structured payload was found
type ExtractionPath string

const (
	// PathStructured is the provider's function/tool-call arguments
	PathStructured ExtractionPath = "structured"
	// PathText is a JSON document recovered from free text. Best effort only.
	PathText ExtractionPath = "text"
)

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// Extract locates the structured payload in a completion result. The
// structured path is tried first: the first tool call named toolName (any tool
// call when toolName is empty). Otherwise the text path searches the content.
func Extract(result llmtypes.CompletionResponse, toolName string) (string, ExtractionPath, error) {
	if raw, ok := structuredPayload(result.ToolCalls, toolName); ok {
		return raw, PathStructured, nil
	}

	content := strings.TrimSpace(result.Content)
	if content == "" {
		reason := "completion contained no tool call and no content"
		if len(result.ToolCalls) > 0 {
			reason = fmt.Sprintf("completion contained no usable %s call and no content", toolName)
		}
		return "", "", errors.NewNoStructuredDataError(reason, "")
	}

	if raw, ok := textPayload(content); ok {
		return raw, PathText, nil
	}

	return "", "", errors.NewNoStructuredDataError("no JSON document found in completion text", content)
}

func structuredPayload(calls []llmtypes.ToolCall, toolName string) (string, bool) {
	for _, call := range calls {
		if toolName != "" && call.Name != toolName {
			continue
		}

		if raw := strings.TrimSpace(call.RawArguments); raw != "" {
			return raw, true
		}
		if call.Arguments != nil {
			data, err := json.Marshal(call.Arguments)
			if err == nil {
				return string(data), true
			}
		}
	}
	return "", false
}

// textPayload strips code fences and returns the first candidate that is a
// JSON object or array: the whole text, then its outermost {...} or [...] span
func textPayload(content string) (string, bool) {
	candidates := []string{}
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, content)

	for _, text := range candidates {
		if isJSONDocument(text) {
			return text, true
		}
		for _, delims := range [][2]string{{"{", "}"}, {"[", "]"}} {
			if span, ok := outermostSpan(text, delims[0], delims[1]); ok && isJSONDocument(span) {
				return span, true
			}
		}
	}
	return "", false
}

func outermostSpan(text, open, close string) (string, bool) {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// isJSONDocument reports whether text is a valid JSON object or array
func isJSONDocument(text string) bool {
	if text == "" || (text[0] != '{' && text[0] != '[') {
		return false
	}
	return json.Valid([]byte(text))
}
