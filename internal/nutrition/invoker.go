package nutrition

import (
	"context"
	"time"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llm"
	"github.com/user/foodlog/internal/llmtypes"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/metrics"
)

// Invoker performs the single completion call of an estimate
type Invoker struct {
	client  llm.LLMClient
	timeout time.Duration
	logger  *logging.Logger
}

// NewInvoker creates an invoker around a provider client built at startup
func NewInvoker(client llm.LLMClient, timeout time.Duration, logger *logging.Logger) *Invoker {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Invoker{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("invoker"),
	}
}

// Invoke sends req to the provider. The call is detached from ctx cancellation
// so a client disconnect does not abort a billed request; it is bounded by the
// invoker timeout instead.
func (i *Invoker) Invoke(ctx context.Context, req llmtypes.CompletionRequest) (llmtypes.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	provider := i.client.GetProvider()
	start := time.Now()

	resp, err := i.client.GenerateCompletion(callCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		metrics.ProviderDuration.WithLabelValues(provider, metrics.OutcomeFailure).Observe(elapsed.Seconds())
		return llmtypes.CompletionResponse{}, classifyProviderError(provider, err)
	}

	metrics.ProviderDuration.WithLabelValues(provider, metrics.OutcomeSuccess).Observe(elapsed.Seconds())
	metrics.ProviderTokens.WithLabelValues(provider, "input").Add(float64(resp.Usage.InputTokens))
	metrics.ProviderTokens.WithLabelValues(provider, "output").Add(float64(resp.Usage.OutputTokens))

	i.logger.Debug("completion received",
		logging.String("provider", provider),
		logging.String("model", req.Model),
		logging.Duration("duration", elapsed),
		logging.Int("tool_calls", len(resp.ToolCalls)),
		logging.String("finish_reason", resp.FinishReason),
		logging.Int("input_tokens", resp.Usage.InputTokens),
		logging.Int("output_tokens", resp.Usage.OutputTokens),
	)

	return resp, nil
}

// classifyProviderError maps errors the client did not classify (bare
// deadline or transport errors) to ProviderUnavailableError
func classifyProviderError(provider string, err error) error {
	if _, ok := errors.AsFoodLogError(err); ok {
		return err
	}
	return errors.NewProviderUnavailableError(provider, 0, err)
}
