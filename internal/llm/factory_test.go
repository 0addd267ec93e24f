package llm

import (
	"testing"
	"time"

	"github.com/user/foodlog/internal/config"
)

func TestFactory_CreateClient_Providers(t *testing.T) {
	tests := []struct {
		name        string
		provider    string
		expectError bool
	}{
		{"openai", "openai", false},
		{"empty defaults to openai", "", false},
		{"anthropic", "anthropic", true},
		{"unsupported", "unsupported", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewFactory(nil)
			cfg := config.LLMConfig{
				Provider: tt.provider,
				Model:    "test-model",
				APIKey:   "test-key",
			}

			client, err := factory.CreateClient(cfg)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if client == nil || client.GetProvider() != "openai" {
				t.Errorf("Expected openai client, got %v", client)
			}
		})
	}
}

func TestNewRetryClientFromConfig(t *testing.T) {
	rc := NewRetryClientFromConfig(config.LLMConfig{
		Timeout: 30,
		Retry:   config.RetryConfig{MaxAttempts: 3, BaseWaitMS: 100, MaxWaitMS: 400},
	})

	if rc.GetTimeout() != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", rc.GetTimeout())
	}
	if rc.config.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", rc.config.MaxAttempts)
	}
	if rc.config.BaseWait != 100*time.Millisecond || rc.config.MaxWait != 400*time.Millisecond {
		t.Errorf("Expected 100ms/400ms backoff, got %v/%v", rc.config.BaseWait, rc.config.MaxWait)
	}
}

func TestNewRetryClientFromConfig_Defaults(t *testing.T) {
	rc := NewRetryClientFromConfig(config.LLMConfig{})

	if rc.GetTimeout() != 60*time.Second {
		t.Errorf("Expected default timeout 60s, got %v", rc.GetTimeout())
	}
	if rc.config.MaxAttempts != 2 {
		t.Errorf("Expected default 2 attempts, got %d", rc.config.MaxAttempts)
	}
}
