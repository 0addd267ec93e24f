package llm

import (
	"fmt"

	"github.com/user/foodlog/internal/config"
)

// Factory creates LLM clients
type Factory struct {
	retryClient *RetryClient
}

// NewFactory creates a new LLM factory. A nil retryClient is replaced by one
// built from the LLM configuration at CreateClient time.
func NewFactory(retryClient *RetryClient) *Factory {
	return &Factory{
		retryClient: retryClient,
	}
}

// CreateClient creates an LLM client based on the provider configuration
func (f *Factory) CreateClient(cfg config.LLMConfig) (LLMClient, error) {
	retryClient := f.retryClient
	if retryClient == nil {
		retryClient = NewRetryClientFromConfig(cfg)
	}

	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(cfg, retryClient), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// NewRetryClientFromConfig builds the retry client described by cfg.Retry,
// bounded by the per-call timeout
func NewRetryClientFromConfig(cfg config.LLMConfig) *RetryClient {
	return NewRetryClientWithTimeout(cfg.GetTimeout(), &RetryConfig{
		MaxAttempts: cfg.Retry.GetMaxAttempts(),
		BaseWait:    cfg.Retry.GetBaseWait(),
		MaxWait:     cfg.Retry.GetMaxWait(),
	})
}
