package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tkaraxa/sibyl/internal/core"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Engine    EngineConfig              `mapstructure:"engine"`
	Source    SourceConfig              `mapstructure:"source"`
	Sentiment SentimentConfig           `mapstructure:"sentiment"`
	LLM       LLMConfig                 `mapstructure:"llm"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Router    RouterConfig              `mapstructure:"router"`
	Watchlist []WatchlistItem           `mapstructure:"watchlist"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	APIKey     string `mapstructure:"api_key"`
	MaxReports int    `mapstructure:"max_reports"`
}

// EngineConfig holds the indicator and scoring tunables. These were ambient
// module constants in earlier revisions; they are explicit here so tests and
// deployments can pin them.
type EngineConfig struct {
	DefaultDays        int `mapstructure:"default_days"`
	MinPricePoints     int `mapstructure:"min_price_points"`
	FullFidelityPoints int `mapstructure:"full_fidelity_points"`
	RSIPeriod          int `mapstructure:"rsi_period"`
	MACDFast           int `mapstructure:"macd_fast"`
	MACDSlow           int `mapstructure:"macd_slow"`
	MACDSignal         int `mapstructure:"macd_signal"`
	BollingerPeriod    int `mapstructure:"bollinger_period"`
	BollingerK         int `mapstructure:"bollinger_k"`
	DecisionMargin     int `mapstructure:"decision_margin"`
}

type SourceConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	APIType         string        `mapstructure:"api_type"` // "demo" or "pro"
	SupportedAssets []string      `mapstructure:"supported_assets"`
	Timeout         time.Duration `mapstructure:"timeout"`
	HistoryDelay    time.Duration `mapstructure:"history_delay"`
	Fallbacks       []string      `mapstructure:"fallbacks"`
	Retry           RetryConfig   `mapstructure:"retry"`
}

// RetryConfig maps onto retry.Policy.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	Multiplier     float64       `mapstructure:"multiplier"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"`
}

type SentimentConfig struct {
	AgentURL  string        `mapstructure:"agent_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PollDelay time.Duration `mapstructure:"poll_delay"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Ollama   OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type NotifierConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	BotToken string            `mapstructure:"bot_token"`
	ChatID   string            `mapstructure:"chat_id"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

type RouterConfig struct {
	CooldownHours int     `mapstructure:"cooldown_hours"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

type WatchlistItem struct {
	Asset string `mapstructure:"asset"`
	Days  int    `mapstructure:"days"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			MaxReports: 500,
		},
		Engine: EngineConfig{
			DefaultDays:        30,
			MinPricePoints:     2,
			FullFidelityPoints: 50,
			RSIPeriod:          14,
			MACDFast:           12,
			MACDSlow:           26,
			MACDSignal:         9,
			BollingerPeriod:    20,
			BollingerK:         2,
			DecisionMargin:     20,
		},
		Source: SourceConfig{
			APIType:         "demo",
			SupportedAssets: []string{"bitcoin", "ethereum"},
			Timeout:         45 * time.Second,
			HistoryDelay:    1 * time.Second,
			Fallbacks:       []string{"binance"},
			Retry: RetryConfig{
				MaxAttempts:    3,
				BaseDelay:      1 * time.Second,
				Multiplier:     2.0,
				RateLimitDelay: 60 * time.Second,
			},
		},
		Sentiment: SentimentConfig{
			AgentURL:  "http://localhost:10000",
			Timeout:   10 * time.Second,
			PollDelay: 1 * time.Second,
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "data/archive",
		},
		Router: RouterConfig{
			CooldownHours: 4,
			MinConfidence: 70,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if len(c.Source.SupportedAssets) == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("source.supported_assets cannot be empty"))
	}
	if c.Source.Retry.MaxAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Source.Retry.MaxAttempts))
	}
	if c.Source.Retry.Multiplier < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("retry.multiplier must be at least 1, got %f", c.Source.Retry.Multiplier))
	}

	if c.Engine.MinPricePoints < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine.min_price_points must be at least 2, got %d", c.Engine.MinPricePoints))
	}
	if c.Engine.DecisionMargin < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine.decision_margin cannot be negative, got %d", c.Engine.DecisionMargin))
	}

	if c.Router.MinConfidence < 0 || c.Router.MinConfidence > 95 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("router.min_confidence must be between 0 and 95, got %f", c.Router.MinConfidence))
	}
	if c.Router.CooldownHours < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("router.cooldown_hours cannot be negative, got %d", c.Router.CooldownHours))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		}
	}

	return nil
}
