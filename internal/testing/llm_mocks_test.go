package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestOpenAIToolCallCompletion_EncodesArgumentsAsString(t *testing.T) {
	body := OpenAIToolCallCompletion("record_nutrition", TurkeySandwichJSON)

	var decoded struct {
		Choices []struct {
			Message struct {
				ToolCalls []struct {
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}

	call := decoded.Choices[0].Message.ToolCalls[0].Function
	if call.Name != "record_nutrition" {
		t.Errorf("Expected name 'record_nutrition', got '%s'", call.Name)
	}
	if call.Arguments != TurkeySandwichJSON {
		t.Errorf("Expected arguments to round-trip verbatim, got '%s'", call.Arguments)
	}
}

func TestNewMockServer_ServesHandler(t *testing.T) {
	server := NewMockServer(t, OpenAIHandler(OpenAIChatCompletion("hi")), WithAuthValidation("Authorization", "Bearer k"))

	req, _ := http.NewRequest(http.MethodPost, server.URL, nil)
	req.Header.Set("Authorization", "Bearer k")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"content":"hi"`) {
		t.Errorf("Expected completion body, got: %s", string(body))
	}
}

func TestRetryHandler_FailsThenSucceeds(t *testing.T) {
	handler := NewRetryHandler(1, http.StatusServiceUnavailable, "down", OpenAIHandler("{}"))
	server := NewMockServer(t, handler.ServeHTTP)

	for i, want := range []int{http.StatusServiceUnavailable, http.StatusOK} {
		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("call %d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
	}

	if handler.CallCount() != 2 {
		t.Errorf("Expected 2 calls, got %d", handler.CallCount())
	}
}

func TestMockLLMClient_ReturnsResponsesInOrder(t *testing.T) {
	mock := NewMockLLMClient(NewTextResponse("first"), NewTextResponse("second"))

	for _, want := range []string{"first", "second", "second"} {
		resp, err := mock.GenerateCompletion(context.Background(), NewRequestFixture())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != want {
			t.Errorf("Expected '%s', got '%s'", want, resp.Content)
		}
	}
	if mock.Calls() != 3 {
		t.Errorf("Expected 3 calls, got %d", mock.Calls())
	}
}

func TestMockLLMClient_DelayHonoursContext(t *testing.T) {
	mock := NewMockLLMClient(NewTextResponse("late"))
	mock.Delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.GenerateCompletion(ctx, NewRequestFixture())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestMockUploader_RecordsUploads(t *testing.T) {
	uploader := NewMockUploader("https://storage.example/bucket/uploads/a.png")

	url, err := uploader.Upload(context.Background(), TinyPNG(), "image/png", "a.png")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if url != uploader.URL {
		t.Errorf("Expected '%s', got '%s'", uploader.URL, url)
	}
	if uploader.UploadCount() != 1 || uploader.Uploads[0].ContentType != "image/png" {
		t.Errorf("Expected one recorded png upload, got %+v", uploader.Uploads)
	}
}
