package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/user/foodlog/internal/errors"
)

const (
	envPrefix         = "FOODLOG"
	projectConfigName = "foodlog.yaml"
	globalConfigName  = ".foodlog.yaml"
)

// defaults are registered with viper so every key can be overridden from the environment
var defaults = map[string]interface{}{
	"debug":                              false,
	"server.port":                        3000,
	"server.read_timeout":                15,
	"server.write_timeout":               120,
	"server.shutdown_timeout":            10,
	"server.max_upload_mb":               10,
	"server.api_prefix":                  "/api",
	"llm.provider":                       "openai",
	"llm.model":                          "gpt-4o-mini",
	"llm.vision_model":                   "",
	"llm.api_key":                        "",
	"llm.base_url":                       "",
	"llm.timeout":                        60,
	"llm.max_tokens":                     500,
	"llm.temperature":                    0.0,
	"llm.image_detail":                   "low",
	"llm.retry.max_attempts":             2,
	"llm.retry.base_wait_ms":             500,
	"llm.retry.max_wait_ms":              5000,
	"storage.enabled":                    false,
	"storage.bucket":                     "food-logger-storage",
	"storage.region":                     "auto",
	"storage.endpoint":                   "https://storage.googleapis.com",
	"storage.public_base_url":            "https://storage.googleapis.com",
	"storage.key_prefix":                 "uploads",
	"storage.access_key_id":              "",
	"storage.secret_access_key":          "",
	"storage.path_style":                 true,
	"storage.public_read":                true,
	"storage.max_attempts":               3,
	"nutrition.itemized":                 false,
	"nutrition.vision_freeform_fallback": false,
	"nutrition.prompts_dir":              "",
	"logging.level":                      "info",
	"logging.format":                     "json",
	"logging.log_dir":                    "",
}

// Loader handles loading configuration from multiple sources
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Loader{v: v}
}

// Load assembles the configuration.
// Precedence: CLI > FOODLOG_* env > configFile (or ./foodlog.yaml) > ~/.foodlog.yaml > legacy env > Defaults
func (l *Loader) Load(configFile string, cliOverrides map[string]interface{}) (*Config, error) {
	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}

	if err := l.loadProjectConfig(configFile); err != nil {
		return nil, err
	}

	l.applyCLIOverrides(cliOverrides)

	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
		TagName:          "mapstructure",
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(l.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	l.applyLegacyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadGlobalConfig loads configuration from ~/.foodlog.yaml
func (l *Loader) loadGlobalConfig() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil // Not a fatal error
	}

	globalConfig := filepath.Join(homeDir, globalConfigName)
	if _, err := os.Stat(globalConfig); err != nil {
		return nil // File doesn't exist, skip
	}

	l.v.SetConfigFile(globalConfig)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(globalConfig, err)
	}

	return nil
}

// loadProjectConfig loads an explicit config file, or ./foodlog.yaml when present
func (l *Loader) loadProjectConfig(configFile string) error {
	explicit := configFile != ""
	if !explicit {
		configFile = projectConfigName
	}

	if _, err := os.Stat(configFile); err != nil {
		if explicit {
			return errors.NewConfigFileError(configFile, err)
		}
		return nil
	}

	l.v.SetConfigFile(configFile)
	if err := l.v.MergeInConfig(); err != nil {
		return errors.NewConfigFileError(configFile, err)
	}

	return nil
}

// applyCLIOverrides applies CLI flag overrides
func (l *Loader) applyCLIOverrides(overrides map[string]interface{}) {
	for key, value := range overrides {
		if value != nil {
			l.v.Set(key, value)
		}
	}
}

// applyLegacyEnvOverrides honours the unprefixed variables the service has always read
func (l *Loader) applyLegacyEnvOverrides(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_SERVER_PORT") == "" && !l.v.InConfig("server.port") {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "uploads"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Debug {
		cfg.Logging.Level = "debug"
	}
}

// validate checks the assembled configuration
func validate(cfg *Config) error {
	if cfg.LLM.APIKey == "" {
		return errors.NewMissingEnvVarError(envPrefix+"_LLM_API_KEY", "API key for the completion provider (OPENAI_API_KEY is also accepted)")
	}

	validProviders := map[string]bool{
		"openai": true,
	}
	if !validProviders[cfg.LLM.Provider] {
		return errors.NewInvalidEnvVarError(envPrefix+"_LLM_PROVIDER", cfg.LLM.Provider, "Must be one of: openai")
	}

	switch cfg.LLM.ImageDetail {
	case "", "low", "high", "auto":
	default:
		return errors.NewInvalidEnvVarError(envPrefix+"_LLM_IMAGE_DETAIL", cfg.LLM.ImageDetail, "Must be one of: low, high, auto")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return errors.NewInvalidEnvVarError(envPrefix+"_SERVER_PORT", strconv.Itoa(cfg.Server.Port), "Must be a valid TCP port")
	}

	if cfg.Storage.Enabled && cfg.Storage.Bucket == "" {
		return errors.NewConfigurationError("storage.bucket is required when storage.enabled is true")
	}

	if cfg.Server.APIPrefix != "" && !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
		return errors.NewInvalidEnvVarError(envPrefix+"_SERVER_API_PREFIX", cfg.Server.APIPrefix, "Must start with '/'")
	}

	return nil
}

// Load is a convenience wrapper around NewLoader().Load
func Load(configFile string, cliOverrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(configFile, cliOverrides)
}
