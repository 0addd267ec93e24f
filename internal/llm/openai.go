package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
)

const openaiProvider = "openai"

// OpenAIClient implements LLMClient for OpenAI-compatible chat completion APIs
type OpenAIClient struct {
	*BaseLLMClient
	apiKey  string
	baseURL string
	model   string
}

// openaiRequest represents the request body for OpenAI API
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Tools       []openaiTool    `json:"tools,omitempty"`
	ToolChoice  interface{}     `json:"tool_choice,omitempty"`
}

// openaiMessage represents a message in OpenAI format.
// Content is a string for plain messages and a part array for multimodal ones.
type openaiMessage struct {
	Role         string              `json:"role"`
	Content      interface{}         `json:"content"`
	ToolCalls    []openaiToolCall    `json:"tool_calls,omitempty"`
	FunctionCall *openaiToolCallFunc `json:"function_call,omitempty"`
}

// openaiContentPart is one element of a multimodal content array
type openaiContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// openaiTool represents a tool definition in OpenAI format
type openaiTool struct {
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

// openaiToolFunction represents tool function parameters
type openaiToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// openaiToolChoice forces a specific function
type openaiToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// openaiToolCall represents a tool call in OpenAI format
type openaiToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openaiToolCallFunc `json:"function"`
}

// openaiToolCallFunc represents function call details
type openaiToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// openaiResponseMessage is the assistant message in a response; content is always a string or null
type openaiResponseMessage struct {
	Role         string              `json:"role"`
	Content      *string             `json:"content"`
	ToolCalls    []openaiToolCall    `json:"tool_calls,omitempty"`
	FunctionCall *openaiToolCallFunc `json:"function_call,omitempty"`
}

// openaiResponse represents the response from OpenAI API
type openaiResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openaiChoice     `json:"choices"`
	Usage   openaiUsage        `json:"usage"`
	Error   *openaiErrorDetail `json:"error,omitempty"`
}

// openaiChoice represents a choice in the response
type openaiChoice struct {
	Index        int                   `json:"index"`
	Message      openaiResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// openaiUsage represents token usage
type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openaiErrorDetail represents an error from OpenAI
type openaiErrorDetail struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg config.LLMConfig, retryClient *RetryClient) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		BaseLLMClient: NewBaseLLMClient(retryClient),
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		model:         cfg.Model,
	}
}

// GenerateCompletion generates a completion from OpenAI.
// Transport failures, deadlines and 5xx become ProviderUnavailableError; any
// other non-200 status or an error body becomes ProviderRejectedError.
func (c *OpenAIClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	oaReq := c.convertRequest(req)

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", c.apiKey),
	}

	resp, err := c.doHTTPRequest(ctx, http.MethodPost, url, headers, oaReq)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderUnavailableError(openaiProvider, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, errors.NewProviderUnavailableError(openaiProvider, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 500 {
		return CompletionResponse{}, errors.NewProviderUnavailableError(openaiProvider, resp.StatusCode, fmt.Errorf("API error: %s", errorMessage(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, errors.NewProviderRejectedError(openaiProvider, resp.StatusCode, errorMessage(body))
	}

	var oaResp openaiResponse
	if err := json.Unmarshal(body, &oaResp); err != nil {
		return CompletionResponse{}, errors.NewProviderRejectedError(openaiProvider, resp.StatusCode, fmt.Sprintf("failed to parse response: %v", err))
	}

	if oaResp.Error != nil {
		return CompletionResponse{}, errors.NewProviderRejectedError(openaiProvider, resp.StatusCode, oaResp.Error.Message)
	}

	return c.convertResponse(oaResp), nil
}

// SupportsTools returns true
func (c *OpenAIClient) SupportsTools() bool {
	return true
}

// GetProvider returns the provider name
func (c *OpenAIClient) GetProvider() string {
	return openaiProvider
}

// convertRequest converts internal request to OpenAI format
func (c *OpenAIClient) convertRequest(req CompletionRequest) openaiRequest {
	messages := []openaiMessage{}

	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{
			Role:    msg.Role,
			Content: convertContent(msg),
		})
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	oaReq := openaiRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	if len(req.Tools) > 0 {
		oaReq.Tools = make([]openaiTool, len(req.Tools))
		for i, tool := range req.Tools {
			oaReq.Tools[i] = openaiTool{
				Type: "function",
				Function: openaiToolFunction{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			}
		}

		if req.ToolChoice != "" {
			choice := openaiToolChoice{Type: "function"}
			choice.Function.Name = req.ToolChoice
			oaReq.ToolChoice = choice
		}
	}

	return oaReq
}

// convertContent renders a message as a string or as a multimodal part array
func convertContent(msg Message) interface{} {
	if len(msg.Parts) == 0 {
		return msg.Content
	}

	parts := make([]openaiContentPart, 0, len(msg.Parts))
	for _, part := range msg.Parts {
		switch part.Type {
		case llmtypes.PartImageURL:
			parts = append(parts, openaiContentPart{
				Type:     "image_url",
				ImageURL: &openaiImageURL{URL: part.ImageURL, Detail: part.Detail},
			})
		default:
			parts = append(parts, openaiContentPart{Type: "text", Text: part.Text})
		}
	}
	return parts
}

// convertResponse converts OpenAI response to internal format
func (c *OpenAIClient) convertResponse(resp openaiResponse) CompletionResponse {
	result := CompletionResponse{
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}

	if len(resp.Choices) == 0 {
		return result
	}

	choice := resp.Choices[0]
	result.FinishReason = choice.FinishReason
	if choice.Message.Content != nil {
		result.Content = *choice.Message.Content
	}

	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, convertToolCall(tc.Function))
	}

	// Legacy function-calling responses carry a single function_call instead of tool_calls
	if len(result.ToolCalls) == 0 && choice.Message.FunctionCall != nil {
		result.ToolCalls = append(result.ToolCalls, convertToolCall(*choice.Message.FunctionCall))
	}

	return result
}

func convertToolCall(fn openaiToolCallFunc) ToolCall {
	var args map[string]interface{}
	if fn.Arguments != "" {
		// Arguments that are not a JSON object stay available through RawArguments
		_ = json.Unmarshal([]byte(fn.Arguments), &args)
	}

	return ToolCall{
		Name:         fn.Name,
		Arguments:    args,
		RawArguments: fn.Arguments,
	}
}

// errorMessage extracts the provider's error message from a response body
func errorMessage(body []byte) string {
	var envelope struct {
		Error *openaiErrorDetail `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return msg
}
