package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/foodlog/internal/llmtypes"
)

// MockLLMClient implements llm.LLMClient for testing
type MockLLMClient struct {
	mu             sync.Mutex
	Responses      []llmtypes.CompletionResponse
	CallCount      int
	LastRequest    llmtypes.CompletionRequest
	ShouldError    bool
	ErrorToReturn  error
	RequestHistory []llmtypes.CompletionRequest

	// Delay blocks each call until it elapses or the context ends
	Delay time.Duration
}

// NewMockLLMClient creates a new mock LLM client with predefined responses
func NewMockLLMClient(responses ...llmtypes.CompletionResponse) *MockLLMClient {
	return &MockLLMClient{
		Responses:      responses,
		RequestHistory: make([]llmtypes.CompletionRequest, 0),
	}
}

// NewToolCallResponse builds a completion carrying one tool call with raw arguments
func NewToolCallResponse(name, arguments string) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{
		ToolCalls: []llmtypes.ToolCall{
			{Name: name, RawArguments: arguments},
		},
		FinishReason: "tool_calls",
	}
}

// NewTextResponse builds a completion carrying only free text
func NewTextResponse(content string) llmtypes.CompletionResponse {
	return llmtypes.CompletionResponse{Content: content, FinishReason: "stop"}
}

// GenerateCompletion implements llm.LLMClient
func (m *MockLLMClient) GenerateCompletion(ctx context.Context, req llmtypes.CompletionRequest) (llmtypes.CompletionResponse, error) {
	m.mu.Lock()
	m.LastRequest = req
	m.RequestHistory = append(m.RequestHistory, req)
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return llmtypes.CompletionResponse{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldError {
		m.CallCount++
		return llmtypes.CompletionResponse{}, m.ErrorToReturn
	}

	if m.CallCount >= len(m.Responses) {
		// Return last response if we've exhausted the list
		if len(m.Responses) > 0 {
			resp := m.Responses[len(m.Responses)-1]
			m.CallCount++
			return resp, nil
		}
		return llmtypes.CompletionResponse{}, fmt.Errorf("no responses configured")
	}

	resp := m.Responses[m.CallCount]
	m.CallCount++
	return resp, nil
}

// SupportsTools implements llm.LLMClient
func (m *MockLLMClient) SupportsTools() bool {
	return true
}

// GetProvider implements llm.LLMClient
func (m *MockLLMClient) GetProvider() string {
	return "mock"
}

// Calls returns the number of completions served so far
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset resets the mock state
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = llmtypes.CompletionRequest{}
	m.RequestHistory = make([]llmtypes.CompletionRequest, 0)
	m.ShouldError = false
	m.ErrorToReturn = nil
}

// SetError configures the mock to return an error
func (m *MockLLMClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorToReturn = err
}

// MockUploader implements storage.Uploader for testing
type MockUploader struct {
	mu            sync.Mutex
	URL           string
	ErrorToReturn error
	Uploads       []MockUpload
}

// MockUpload records one Upload call
type MockUpload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// NewMockUploader creates an uploader that always returns url
func NewMockUploader(url string) *MockUploader {
	return &MockUploader{URL: url}
}

// Upload implements storage.Uploader
func (m *MockUploader) Upload(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Uploads = append(m.Uploads, MockUpload{Data: data, ContentType: contentType, Filename: filename})
	if m.ErrorToReturn != nil {
		return "", m.ErrorToReturn
	}
	return m.URL, nil
}

// UploadCount returns the number of Upload calls
func (m *MockUploader) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploads)
}

// NewRequestFixture returns a minimal completion request
func NewRequestFixture() llmtypes.CompletionRequest {
	return llmtypes.CompletionRequest{
		SystemPrompt: "You are a nutrition estimator.",
		Messages:     []llmtypes.Message{llmtypes.TextMessage("user", "an apple")},
		MaxTokens:    100,
	}
}
