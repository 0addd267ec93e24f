package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/user/foodlog/internal/config"
	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/llm"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/metrics"
	"github.com/user/foodlog/internal/nutrition"
	"github.com/user/foodlog/internal/prompts"
	"github.com/user/foodlog/internal/storage"
)

// InitLogger creates the process logger from the logging section.
// The caller is responsible for calling logger.Sync() when done.
func InitLogger(cfg config.LoggingConfig, debug bool) (*logging.Logger, error) {
	level := cfg.Level
	if debug {
		level = "debug"
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:        logging.LevelFromString(level),
		Format:       cfg.Format,
		LogDir:       cfg.LogDir,
		EnableCaller: debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// BuildEstimator wires prompts, the provider client and the pipeline stages.
// The provider client is created once here and shared by every request.
func BuildEstimator(cfg *config.Config, logger *logging.Logger) (*nutrition.Estimator, error) {
	promptManager, err := prompts.NewManagerWithOverrides(cfg.Nutrition.PromptsDir)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("failed to load prompts: %v", err))
	}

	retryClient := llm.NewRetryClientFromConfig(cfg.LLM)
	retryClient.OnRetry(func(attempt int, reason string) {
		metrics.ProviderRetries.Inc()
		logger.Warn("retrying completion request",
			logging.Int("attempt", attempt),
			logging.String("reason", reason),
		)
	})

	client, err := llm.NewFactory(retryClient).CreateClient(cfg.LLM)
	if err != nil {
		return nil, errors.NewConfigurationError(err.Error())
	}

	builder := nutrition.NewBuilder(promptManager, cfg.LLM)
	invoker := nutrition.NewInvoker(client, cfg.LLM.GetTimeout(), logger)
	validator, err := nutrition.NewValidator()
	if err != nil {
		return nil, err
	}

	return nutrition.NewEstimator(builder, invoker, validator, logger, nutrition.Options{
		Itemized:               cfg.Nutrition.Itemized,
		VisionFreeformFallback: cfg.Nutrition.VisionFreeformFallback,
	}), nil
}

// BuildUploader returns the object store uploader, or nil when storage is disabled
func BuildUploader(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (storage.Uploader, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	uploader, err := storage.NewS3Uploader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return uploader, nil
}

// HandleCommandError writes a user-facing description of err to w and returns err unchanged
func HandleCommandError(err error, w io.Writer) error {
	if err == nil {
		return nil
	}

	if appErr, ok := errors.AsFoodLogError(err); ok {
		fmt.Fprintf(w, "%s\n", appErr.GetUserMessage())
		return err
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return err
}

// MaskSecret hides all but the last four characters of a credential
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
