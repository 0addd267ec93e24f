package config

import (
	"time"
)

// Config is the top-level configuration assembled from foodlog.yaml, ~/.foodlog.yaml,
// the environment and CLI flags
type Config struct {
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Nutrition NutritionConfig `mapstructure:"nutrition" yaml:"nutrition"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port" yaml:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout" yaml:"read_timeout"`         // Seconds
	WriteTimeout    int    `mapstructure:"write_timeout" yaml:"write_timeout"`       // Seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"` // Seconds
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	APIPrefix       string `mapstructure:"api_prefix" yaml:"api_prefix"` // Routes are served at / and under this prefix
}

// LLMConfig holds completion provider configuration
type LLMConfig struct {
	Provider    string      `mapstructure:"provider" yaml:"provider"` // openai
	Model       string      `mapstructure:"model" yaml:"model"`
	VisionModel string      `mapstructure:"vision_model" yaml:"vision_model"` // Optional, defaults to Model
	APIKey      string      `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string      `mapstructure:"base_url" yaml:"base_url"` // Optional, for OpenAI-compatible APIs
	Timeout     int         `mapstructure:"timeout" yaml:"timeout"`   // Timeout in seconds
	MaxTokens   int         `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64     `mapstructure:"temperature" yaml:"temperature"`
	ImageDetail string      `mapstructure:"image_detail" yaml:"image_detail"` // low, high, auto
	Retry       RetryConfig `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig holds HTTP retry configuration for transient provider failures
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"` // Total attempts, 1 disables retries
	BaseWaitMS  int `mapstructure:"base_wait_ms" yaml:"base_wait_ms"`
	MaxWaitMS   int `mapstructure:"max_wait_ms" yaml:"max_wait_ms"`
}

// StorageConfig holds object store configuration for uploaded photos
type StorageConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	PublicBaseURL   string `mapstructure:"public_base_url" yaml:"public_base_url"`
	KeyPrefix       string `mapstructure:"key_prefix" yaml:"key_prefix"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style" yaml:"path_style"`
	PublicRead      bool   `mapstructure:"public_read" yaml:"public_read"`
	MaxAttempts     int    `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// NutritionConfig holds pipeline behaviour switches
type NutritionConfig struct {
	Itemized               bool   `mapstructure:"itemized" yaml:"itemized"`                                 // List shape for text and image modes
	VisionFreeformFallback bool   `mapstructure:"vision_freeform_fallback" yaml:"vision_freeform_fallback"` // Return raw analysis text when vision extraction fails
	PromptsDir             string `mapstructure:"prompts_dir" yaml:"prompts_dir"`                           // Optional prompt overrides
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, console
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`
}

// GetTimeout returns the timeout as a time.Duration
func (c *LLMConfig) GetTimeout() time.Duration {
	if c.Timeout == 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetMaxTokens returns the max tokens with a default
func (c *LLMConfig) GetMaxTokens() int {
	if c.MaxTokens == 0 {
		return 500
	}
	return c.MaxTokens
}

// GetVisionModel returns the model used for image requests
func (c *LLMConfig) GetVisionModel() string {
	if c.VisionModel == "" {
		return c.Model
	}
	return c.VisionModel
}

// GetImageDetail returns the image detail level with a default
func (c *LLMConfig) GetImageDetail() string {
	if c.ImageDetail == "" {
		return "low"
	}
	return c.ImageDetail
}

// GetMaxAttempts returns the attempt budget with a default
func (c *RetryConfig) GetMaxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 2
	}
	return c.MaxAttempts
}

// GetBaseWait returns the first backoff interval
func (c *RetryConfig) GetBaseWait() time.Duration {
	if c.BaseWaitMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.BaseWaitMS) * time.Millisecond
}

// GetMaxWait returns the backoff cap
func (c *RetryConfig) GetMaxWait() time.Duration {
	if c.MaxWaitMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.MaxWaitMS) * time.Millisecond
}

// GetReadTimeout returns the server read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	if c.ReadTimeout == 0 {
		return 15 * time.Second
	}
	return time.Duration(c.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the server write timeout. It must outlive the provider timeout.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	if c.WriteTimeout == 0 {
		return 120 * time.Second
	}
	return time.Duration(c.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the graceful shutdown budget
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// GetMaxUploadBytes returns the multipart upload limit in bytes
func (c *ServerConfig) GetMaxUploadBytes() int64 {
	if c.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(c.MaxUploadMB) << 20
}
