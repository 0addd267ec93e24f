package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llmtypes"
	testHelpers "github.com/user/foodlog/internal/testing"
)

func newTestClient(baseURL string, attempts int) *OpenAIClient {
	return NewOpenAIClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
	}, NewRetryClient(&RetryConfig{MaxAttempts: attempts, BaseWait: time.Millisecond, MaxWait: time.Millisecond}))
}

func TestOpenAIClient_GenerateCompletion_Success(t *testing.T) {
	server := testHelpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		testHelpers.OpenAIHandler(testHelpers.OpenAIChatCompletion("test response"))(w, r)
	}, testHelpers.WithAuthValidation("Authorization", "Bearer test-key"))

	client := newTestClient(server.URL, 1)

	resp, err := client.GenerateCompletion(context.Background(), CompletionRequest{
		SystemPrompt: "You are a test assistant",
		Messages:     []Message{{Role: "user", Content: "hello"}},
		MaxTokens:    100,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.Content != "test response" {
		t.Errorf("Expected content 'test response', got '%s'", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 42 || resp.Usage.OutputTokens != 17 {
		t.Errorf("Expected usage 42/17, got %d/%d", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
}

func TestOpenAIClient_GenerateCompletion_ToolCallsAndForcedChoice(t *testing.T) {
	var captured map[string]interface{}
	server := testHelpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("Expected JSON request body, got %v", err)
		}
		testHelpers.OpenAIHandler(testHelpers.OpenAIToolCallCompletion("record_nutrition", testHelpers.TurkeySandwichJSON))(w, r)
	})

	client := newTestClient(server.URL, 1)

	resp, err := client.GenerateCompletion(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "a turkey sandwich"}},
		Tools: []ToolDefinition{{
			Name:        "record_nutrition",
			Description: "Record nutrition",
			Parameters:  map[string]interface{}{"type": "object"},
		}},
		ToolChoice: "record_nutrition",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.Name != "record_nutrition" {
		t.Errorf("Expected tool 'record_nutrition', got '%s'", call.Name)
	}
	if call.RawArguments != testHelpers.TurkeySandwichJSON {
		t.Errorf("Expected raw arguments preserved, got '%s'", call.RawArguments)
	}
	if call.Arguments["calories"] != float64(450) {
		t.Errorf("Expected decoded calories 450, got %v", call.Arguments["calories"])
	}

	choice, ok := captured["tool_choice"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected tool_choice object, got %v", captured["tool_choice"])
	}
	fn, _ := choice["function"].(map[string]interface{})
	if fn["name"] != "record_nutrition" {
		t.Errorf("Expected forced function 'record_nutrition', got %v", fn["name"])
	}
	if captured["model"] != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %v", captured["model"])
	}
}

func TestOpenAIClient_GenerateCompletion_LegacyFunctionCall(t *testing.T) {
	server := testHelpers.NewMockServer(t, testHelpers.OpenAIHandler(
		testHelpers.OpenAIFunctionCallCompletion("record_nutrition", testHelpers.NamedRecordJSON)))

	client := newTestClient(server.URL, 1)

	resp, err := client.GenerateCompletion(context.Background(), testHelpers.NewRequestFixture())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].RawArguments != testHelpers.NamedRecordJSON {
		t.Errorf("Expected function_call surfaced as tool call, got %+v", resp.ToolCalls)
	}
}

func TestOpenAIClient_GenerateCompletion_MultimodalContent(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	server := testHelpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		testHelpers.OpenAIHandler(testHelpers.OpenAIChatCompletion("ok"))(w, r)
	})

	client := newTestClient(server.URL, 1)

	_, err := client.GenerateCompletion(context.Background(), CompletionRequest{
		Model:    "gpt-4o",
		Messages: []Message{llmtypes.ImageMessage("What is this?", "https://img.example/a.png", "low")},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if captured.Model != "gpt-4o" {
		t.Errorf("Expected request model override 'gpt-4o', got '%s'", captured.Model)
	}

	var parts []map[string]interface{}
	if err := json.Unmarshal(captured.Messages[0].Content, &parts); err != nil {
		t.Fatalf("Expected content part array, got %s", string(captured.Messages[0].Content))
	}
	if len(parts) != 2 || parts[0]["type"] != "text" || parts[1]["type"] != "image_url" {
		t.Fatalf("Expected text then image_url parts, got %v", parts)
	}
	image := parts[1]["image_url"].(map[string]interface{})
	if image["url"] != "https://img.example/a.png" || image["detail"] != "low" {
		t.Errorf("Expected image url and detail, got %v", image)
	}
}

func TestOpenAIClient_GenerateCompletion_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    errors.Kind
	}{
		{"unauthorized", testHelpers.UnauthorizedHandler(testHelpers.OpenAIErrorBody("Invalid API key", "invalid_request_error")), errors.KindProviderRejected},
		{"rate limited", testHelpers.RateLimitHandler(testHelpers.OpenAIErrorBody("quota exceeded", "insufficient_quota")), errors.KindProviderRejected},
		{"server error", testHelpers.InternalErrorHandler(testHelpers.OpenAIErrorBody("boom", "server_error")), errors.KindProviderUnavailable},
		{"error body with 200", testHelpers.OpenAIHandler(testHelpers.OpenAIErrorBody("model overloaded", "server_error")), errors.KindProviderRejected},
		{"unparseable body", testHelpers.OpenAIHandler("not json"), errors.KindProviderRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testHelpers.NewMockServer(t, tt.handler)
			client := newTestClient(server.URL, 1)

			_, err := client.GenerateCompletion(context.Background(), testHelpers.NewRequestFixture())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if kind := errors.KindOf(err); kind != tt.kind {
				t.Errorf("Expected kind %s, got %s (%v)", tt.kind, kind, err)
			}
			if stage := errors.StageOf(err); stage != errors.StageInvoker {
				t.Errorf("Expected stage %s, got %s", errors.StageInvoker, stage)
			}
		})
	}
}

func TestOpenAIClient_GenerateCompletion_RetriesServerError(t *testing.T) {
	handler := testHelpers.NewRetryHandler(1, http.StatusBadGateway, "bad gateway",
		testHelpers.OpenAIHandler(testHelpers.OpenAIChatCompletion("recovered")))
	server := testHelpers.NewMockServer(t, handler.ServeHTTP)

	client := newTestClient(server.URL, 2)

	resp, err := client.GenerateCompletion(context.Background(), testHelpers.NewRequestFixture())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("Expected 'recovered', got '%s'", resp.Content)
	}
	if handler.CallCount() != 2 {
		t.Errorf("Expected 2 calls, got %d", handler.CallCount())
	}
}

func TestOpenAIClient_GenerateCompletion_NoRetryOnRateLimit(t *testing.T) {
	handler := testHelpers.NewRetryHandler(5, http.StatusTooManyRequests, testHelpers.OpenAIErrorBody("slow down", "rate_limit"),
		testHelpers.OpenAIHandler(testHelpers.OpenAIChatCompletion("never")))
	server := testHelpers.NewMockServer(t, handler.ServeHTTP)

	client := newTestClient(server.URL, 3)

	_, err := client.GenerateCompletion(context.Background(), testHelpers.NewRequestFixture())
	if errors.KindOf(err) != errors.KindProviderRejected {
		t.Errorf("Expected provider rejected, got %v", err)
	}
	if handler.CallCount() != 1 {
		t.Errorf("Expected 1 call, got %d", handler.CallCount())
	}
}

func TestOpenAIClient_GenerateCompletion_DeadlineIsUnavailable(t *testing.T) {
	server := testHelpers.NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	client := newTestClient(server.URL, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GenerateCompletion(ctx, testHelpers.NewRequestFixture())
	if errors.KindOf(err) != errors.KindProviderUnavailable {
		t.Errorf("Expected provider unavailable, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("Expected timeout to be marked recoverable")
	}
}

func TestOpenAIClient_Metadata(t *testing.T) {
	client := NewOpenAIClient(config.LLMConfig{APIKey: "k"}, nil)

	if client.GetProvider() != "openai" {
		t.Errorf("Expected provider 'openai', got '%s'", client.GetProvider())
	}
	if !client.SupportsTools() {
		t.Error("Expected tool support")
	}
	if client.baseURL != "https://api.openai.com/v1" {
		t.Errorf("Expected default base URL, got '%s'", client.baseURL)
	}
}
