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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Recovery  RecoveryConfig  `yaml:"recovery" mapstructure:"recovery"`
	Generate  GenerateConfig  `yaml:"generate" mapstructure:"generate"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// MonitoringConfig configures the background health checker.
type MonitoringConfig struct {
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FallbackRateThreshold float64 `yaml:"fallback_rate_threshold" mapstructure:"fallback_rate_threshold"`
	MinAvgConfidence      float64 `yaml:"min_avg_confidence" mapstructure:"min_avg_confidence"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds Anthropic API settings for survey generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RecoveryConfig exposes the recovery pipeline tunables.
type RecoveryConfig struct {
	MinQuestionLen       int     `yaml:"min_question_len" mapstructure:"min_question_len"`
	MaxQuestionLen       int     `yaml:"max_question_len" mapstructure:"max_question_len"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	FastPathBytes        int     `yaml:"fast_path_bytes" mapstructure:"fast_path_bytes"`
	PatternBudgetSecs    int     `yaml:"pattern_budget_secs" mapstructure:"pattern_budget_secs"`
	MaxBraceCandidates   int     `yaml:"max_brace_candidates" mapstructure:"max_brace_candidates"`
	MaxFallbackQuestions int     `yaml:"max_fallback_questions" mapstructure:"max_fallback_questions"`
	SingleSectionMax     int     `yaml:"single_section_max" mapstructure:"single_section_max"`
	MinSectionSize       int     `yaml:"min_section_size" mapstructure:"min_section_size"`
	TopicsFile           string  `yaml:"topics_file" mapstructure:"topics_file"`
}

// PatternBudget returns the reconstruction time budget as a duration.
func (r RecoveryConfig) PatternBudget() time.Duration {
	return time.Duration(r.PatternBudgetSecs) * time.Second
}

// GenerateConfig configures survey generation throughput.
type GenerateConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	MaxConcurrent     int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the configuration required by the given command is
// present. Recovery itself needs no credentials; generation and persistence do.
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "generate":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required for generation")
		}
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				missing = append(missing, "store.path is required for the sqlite driver")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url is required for the postgres driver")
			}
		default:
			missing = append(missing, "store.driver must be sqlite or postgres")
		}
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "survey.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("generate.requests_per_minute", 30)
	v.SetDefault("generate.max_concurrent", 4)
	v.SetDefault("recovery.min_question_len", 6)
	v.SetDefault("recovery.max_question_len", 500)
	v.SetDefault("recovery.similarity_threshold", 0.8)
	v.SetDefault("recovery.fast_path_bytes", 1<<20)
	v.SetDefault("recovery.pattern_budget_secs", 30)
	v.SetDefault("recovery.max_brace_candidates", 5)
	v.SetDefault("recovery.max_fallback_questions", 5)
	v.SetDefault("recovery.single_section_max", 5)
	v.SetDefault("recovery.min_section_size", 2)
	v.SetDefault("monitoring.fallback_rate_threshold", 0.25)
	v.SetDefault("monitoring.min_avg_confidence", 0.5)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)

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
