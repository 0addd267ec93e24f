package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

type MockServerOption func(*mockServerConfig)

type mockServerConfig struct {
	validateAuth bool
	authHeader   string
	authValue    string
}

func WithAuthValidation(header, value string) MockServerOption {
	return func(cfg *mockServerConfig) {
		cfg.validateAuth = true
		cfg.authHeader = header
		cfg.authValue = value
	}
}

func NewMockServer(t *testing.T, handler http.HandlerFunc, opts ...MockServerOption) *httptest.Server {
	t.Helper()
	cfg := &mockServerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	wrappedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.validateAuth {
			if r.Header.Get(cfg.authHeader) != cfg.authValue {
				t.Errorf("Expected %s header '%s', got '%s'", cfg.authHeader, cfg.authValue, r.Header.Get(cfg.authHeader))
			}
		}
		handler(w, r)
	})

	server := httptest.NewServer(wrappedHandler)
	t.Cleanup(server.Close)
	return server
}

func UnauthorizedHandler(errorBody string) http.HandlerFunc {
	return statusHandler(http.StatusUnauthorized, errorBody)
}

func RateLimitHandler(errorBody string) http.HandlerFunc {
	return statusHandler(http.StatusTooManyRequests, errorBody)
}

func InternalErrorHandler(errorBody string) http.HandlerFunc {
	return statusHandler(http.StatusInternalServerError, errorBody)
}

func statusHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

// OpenAIErrorBody renders an OpenAI error envelope
func OpenAIErrorBody(message, errType string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    errType,
		},
	})
	return string(body)
}

// OpenAIChatCompletion renders a non-streaming chat completion with plain text content
func OpenAIChatCompletion(content string) string {
	return openAICompletion(map[string]interface{}{
		"role":    "assistant",
		"content": content,
	}, "stop")
}

// OpenAIToolCallCompletion renders a chat completion whose message carries one tool call
func OpenAIToolCallCompletion(name, arguments string) string {
	return openAICompletion(map[string]interface{}{
		"role":    "assistant",
		"content": nil,
		"tool_calls": []map[string]interface{}{
			{
				"id":   "call_abc123",
				"type": "function",
				"function": map[string]interface{}{
					"name":      name,
					"arguments": arguments,
				},
			},
		},
	}, "tool_calls")
}

// OpenAIFunctionCallCompletion renders a legacy function_call completion
func OpenAIFunctionCallCompletion(name, arguments string) string {
	return openAICompletion(map[string]interface{}{
		"role":    "assistant",
		"content": nil,
		"function_call": map[string]interface{}{
			"name":      name,
			"arguments": arguments,
		},
	}, "function_call")
}

func openAICompletion(message map[string]interface{}, finishReason string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{"index": 0, "message": message, "finish_reason": finishReason},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     42,
			"completion_tokens": 17,
			"total_tokens":      59,
		},
	})
	return string(body)
}

// OpenAIHandler serves a fixed chat completion body
func OpenAIHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetJSONHeaders(w)
		fmt.Fprint(w, body)
	}
}

// RetryHandler fails the first failUntil calls with failStatusCode, then delegates
type RetryHandler struct {
	mu             sync.Mutex
	callCount      int
	failUntil      int
	failStatusCode int
	failBody       string
	successHandler http.HandlerFunc
}

func NewRetryHandler(failUntil, failStatusCode int, failBody string, successHandler http.HandlerFunc) *RetryHandler {
	return &RetryHandler{
		failUntil:      failUntil,
		failStatusCode: failStatusCode,
		failBody:       failBody,
		successHandler: successHandler,
	}
}

func (h *RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.callCount++
	fail := h.callCount <= h.failUntil
	h.mu.Unlock()

	if fail {
		w.WriteHeader(h.failStatusCode)
		w.Write([]byte(h.failBody))
		return
	}
	h.successHandler(w, r)
}

func (h *RetryHandler) CallCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callCount
}
