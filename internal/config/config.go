package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Signals   SignalsConfig   `mapstructure:"signals"`
	Regime    RegimeConfig    `mapstructure:"regime"`
	Scan      ScanConfig      `mapstructure:"scan"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Narrator  NarratorConfig  `mapstructure:"narrator"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ProviderConfig holds upstream market-data settings.
type ProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// CacheConfig holds price-table cache settings.
type CacheConfig struct {
	// CurrentTTL applies only to entries whose window ends today; entries
	// for fully historical windows never expire.
	CurrentTTL time.Duration  `mapstructure:"current_ttl"`
	Snapshot   SnapshotConfig `mapstructure:"snapshot"`
}

// SnapshotConfig holds cold-snapshot persistence settings for the cache.
type SnapshotConfig struct {
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

// SignalsConfig holds scorer thresholds.
type SignalsConfig struct {
	TechnicalMinObs int     `mapstructure:"technical_min_obs"`
	AdaptiveMinObs  int     `mapstructure:"adaptive_min_obs"`
	BuyThreshold    float64 `mapstructure:"buy_threshold"`
	SellThreshold   float64 `mapstructure:"sell_threshold"`
	Adaptive        AdaptiveConfig `mapstructure:"adaptive"`
}

// AdaptiveConfig holds the state-space estimator settings.
type AdaptiveConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ProcessVar     float64 `mapstructure:"process_var"`
	ObservationVar float64 `mapstructure:"observation_var"`
}

// RegimeConfig holds regime classifier settings.
type RegimeConfig struct {
	Lookback        int     `mapstructure:"lookback"`
	ReturnThreshold float64 `mapstructure:"return_threshold"`
}

// ScanConfig holds universe-scan settings.
type ScanConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
	Parallelism  int `mapstructure:"parallelism"`
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

// NarratorConfig controls the optional conflict-narrative generator.
type NarratorConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AlertsConfig controls alert routing between the engine and notifiers.
type AlertsConfig struct {
	// Cooldown suppresses repeat alerts per kind and ticker.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// EnabledKinds whitelists alert kinds; empty means all.
	EnabledKinds []string `mapstructure:"enabled_kinds"`
}

type NotifierConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Webhook notifier fields
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
	// Telegram notifier fields
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	// Email notifier fields
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides (ALPHATIC_SECTION_KEY)
	v.SetEnvPrefix("ALPHATIC")
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

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with the documented default constants: 50/100
// observation floors, ±2 action cutoffs, 3 fetch attempts doubling from 1s,
// 24h TTL for current windows, 180-day scan lookback, 60-observation regime
// window with a 2% annualized return threshold.
func Defaults() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:     "https://query1.finance.yahoo.com/v8/finance/spark",
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			BackoffBase: 1 * time.Second,
		},
		Cache: CacheConfig{
			CurrentTTL: 24 * time.Hour,
			Snapshot: SnapshotConfig{
				Enabled: false,
				Type:    "localfs",
				Path:    "data_cache",
			},
		},
		Signals: SignalsConfig{
			TechnicalMinObs: 50,
			AdaptiveMinObs:  100,
			BuyThreshold:    2,
			SellThreshold:   -2,
			Adaptive: AdaptiveConfig{
				Enabled:        true,
				ProcessVar:     0.01,
				ObservationVar: 1.0,
			},
		},
		Regime: RegimeConfig{
			Lookback:        60,
			ReturnThreshold: 0.02,
		},
		Scan: ScanConfig{
			LookbackDays: 180,
			Parallelism:  8,
		},
		Narrator: NarratorConfig{
			Enabled: false,
		},
		Alerts: AlertsConfig{
			Cooldown: 1 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Provider.MaxAttempts < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("provider.max_attempts must be at least 1, got %d", c.Provider.MaxAttempts))
	}
	if c.Provider.BackoffBase < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("provider.backoff_base cannot be negative, got %s", c.Provider.BackoffBase))
	}
	if c.Cache.CurrentTTL <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache.current_ttl must be positive, got %s", c.Cache.CurrentTTL))
	}
	if c.Signals.TechnicalMinObs < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signals.technical_min_obs must be at least 2, got %d", c.Signals.TechnicalMinObs))
	}
	if c.Signals.AdaptiveMinObs < c.Signals.TechnicalMinObs {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signals.adaptive_min_obs (%d) cannot be below technical_min_obs (%d)",
				c.Signals.AdaptiveMinObs, c.Signals.TechnicalMinObs))
	}
	if c.Signals.BuyThreshold <= c.Signals.SellThreshold {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("signals.buy_threshold (%f) must exceed sell_threshold (%f)",
				c.Signals.BuyThreshold, c.Signals.SellThreshold))
	}
	if c.Regime.Lookback < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("regime.lookback must be at least 2, got %d", c.Regime.Lookback))
	}
	if c.Scan.LookbackDays < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("scan.lookback_days must be positive, got %d", c.Scan.LookbackDays))
	}

	if c.Cache.Snapshot.Enabled {
		switch c.Cache.Snapshot.Type {
		case "localfs":
			if c.Cache.Snapshot.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("cache.snapshot.path required for localfs snapshots"))
			}
		case "s3":
			if c.Cache.Snapshot.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("cache.snapshot.s3.bucket required for s3 snapshots"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown snapshot type: %s", c.Cache.Snapshot.Type))
		}
	}

	// LLM validation - if narrator enabled, a provider must be configured
	if c.Narrator.Enabled {
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
		default:
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("narrator enabled but no LLM provider configured"))
		}
	}

	return nil
}
