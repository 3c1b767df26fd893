package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Gateway    GatewayConfig    `yaml:"gateway" mapstructure:"gateway"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analysis-status store backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr      string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword  string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB        int    `yaml:"redis_db" mapstructure:"redis_db"`
	RecordTTLHours int    `yaml:"record_ttl_hours" mapstructure:"record_ttl_hours"`
}

// RecordTTL returns how long persistent stores keep a record.
func (c StoreConfig) RecordTTL() time.Duration {
	return time.Duration(c.RecordTTLHours) * time.Hour
}

// SearchConfig configures the web-search provider used for evidence.
type SearchConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Count       int     `yaml:"count" mapstructure:"count"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// Timeout returns the per-query timeout.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// JinaConfig holds Jina AI Search settings, used when search.provider is jina.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// GatewayConfig configures the chat-model gateway used for media analysis and
// verdict generation.
type GatewayConfig struct {
	Provider           string `yaml:"provider" mapstructure:"provider"`
	Key                string `yaml:"key" mapstructure:"key"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	VisionModel        string `yaml:"vision_model" mapstructure:"vision_model"`
	VerdictModel       string `yaml:"verdict_model" mapstructure:"verdict_model"`
	VisionTimeoutSecs  int    `yaml:"vision_timeout_secs" mapstructure:"vision_timeout_secs"`
	VerdictTimeoutSecs int    `yaml:"verdict_timeout_secs" mapstructure:"verdict_timeout_secs"`
	MaxTokens          int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// VisionTimeout returns the timeout for one media-analysis call.
func (c GatewayConfig) VisionTimeout() time.Duration {
	return time.Duration(c.VisionTimeoutSecs) * time.Second
}

// VerdictTimeout returns the timeout for one verdict-generation call.
func (c GatewayConfig) VerdictTimeout() time.Duration {
	return time.Duration(c.VerdictTimeoutSecs) * time.Second
}

// AnthropicConfig holds Anthropic API settings, used when gateway.provider is
// anthropic.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	VisionModel  string `yaml:"vision_model" mapstructure:"vision_model"`
	VerdictModel string `yaml:"verdict_model" mapstructure:"verdict_model"`
}

// ResilienceConfig configures circuit breakers and store-write retries.
type ResilienceConfig struct {
	FailureThreshold      int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs      int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
	StoreRetryAttempts    int `yaml:"store_retry_attempts" mapstructure:"store_retry_attempts"`
	StoreRetryBackoffMsec int `yaml:"store_retry_backoff_ms" mapstructure:"store_retry_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	UploadDir   string   `yaml:"upload_dir" mapstructure:"upload_dir"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACTCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.record_ttl_hours", 24)
	v.SetDefault("search.provider", "brave")
	v.SetDefault("search.key", "")
	v.SetDefault("search.base_url", "https://api.search.brave.com/res/v1")
	v.SetDefault("search.count", 10)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.rate_per_sec", 5.0)
	v.SetDefault("search.burst", 3)
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("gateway.provider", "openai")
	v.SetDefault("gateway.key", "")
	v.SetDefault("gateway.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("gateway.vision_model", "openai/gpt-4o")
	v.SetDefault("gateway.verdict_model", "openai/gpt-4o")
	v.SetDefault("gateway.vision_timeout_secs", 120)
	v.SetDefault("gateway.verdict_timeout_secs", 120)
	v.SetDefault("gateway.max_tokens", 2048)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.vision_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.verdict_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("resilience.store_retry_attempts", 3)
	v.SetDefault("resilience.store_retry_backoff_ms", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 50)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports configuration that would leave the service unusable.
// Missing API keys are not errors: the affected collaborators degrade softly.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	case "sqlite", "postgres":
		if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for postgres (FACTCHECK_STORE_DATABASE_URL)")
		}
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}

	switch c.Search.Provider {
	case "brave", "jina":
	default:
		return eris.Errorf("config: unsupported search provider %q", c.Search.Provider)
	}

	switch c.Gateway.Provider {
	case "openai", "anthropic":
	default:
		return eris.Errorf("config: unsupported gateway provider %q", c.Gateway.Provider)
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
