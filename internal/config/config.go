// Package config loads the run configuration from a YAML file and the
// environment. A loaded Config is an immutable snapshot: a running batch
// never observes later edits.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration. Priority: ENV > YAML > defaults.
type Config struct {
	Input      InputConfig     `yaml:"input"`
	API        APIConfig       `yaml:"api"`
	Retry      RetryConfig     `yaml:"retry"`
	Gemini     GeminiConfig    `yaml:"gemini"`
	Watch      WatchConfig     `yaml:"watch"`
	Log        LogConfig       `yaml:"log"`
}

// InputConfig names the input/output folders and the feature flags forwarded
// to the annotation service.
type InputConfig struct {
	InputFolder  string `yaml:"input_folder"  env:"INPUT_FOLDER"  env-default:"./input"`
	OutputFolder string `yaml:"output_folder" env:"OUTPUT_FOLDER" env-default:"./output"`
	UseNER       bool   `yaml:"use_ner"       env:"USE_NER"       env-default:"true"`
	UseLLM       bool   `yaml:"use_llm"       env:"USE_LLM"       env-default:"false"`
}

// APIConfig selects and configures the annotation backend.
type APIConfig struct {
	// Backend is "http" for the remote De-bias service or "gemini" for the
	// local LLM-backed annotator.
	Backend        string        `yaml:"backend"         env:"API_BACKEND"     env-default:"http"`
	URL            string        `yaml:"url"             env:"API_URL"         env-default:"https://debias-api.ails.ece.ntua.gr/simple"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"45s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"  env:"RATE_LIMIT_RPS"  env-default:"0"`
}

// RetryConfig is the per-file retry/backoff policy.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first.
	MaxRetries        int           `yaml:"max_retries"         env:"MAX_RETRIES"         env-default:"5"`
	BackoffInitial    time.Duration `yaml:"backoff_initial"     env:"BACKOFF_INITIAL"     env-default:"1s"`
	BackoffMax        time.Duration `yaml:"backoff_max"         env:"BACKOFF_MAX"         env-default:"30s"`
	BackoffJitterFrac float64       `yaml:"backoff_jitter_frac" env:"BACKOFF_JITTER_FRAC" env-default:"0.2"`
}

// GeminiConfig applies when APIConfig.Backend is "gemini".
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"  env:"GEMINI_API_KEY"`
	Model   string `yaml:"model"    env:"GEMINI_MODEL"    env-default:"gemini-2.0-flash"`
	BaseURL string `yaml:"base_url" env:"GEMINI_BASE_URL"`
}

// WatchConfig tunes unattended watch mode.
type WatchConfig struct {
	// Debounce is how long the input tree must stay quiet before a run
	// is triggered.
	Debounce time.Duration `yaml:"debounce" env:"WATCH_DEBOUNCE" env-default:"2s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a YAML file and environment variables.
// The file path comes from CONFIG_PATH (fallback "./config.yaml"); when the
// fallback file does not exist, configuration comes from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot drive a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.InputFolder) == "" {
		return fmt.Errorf("input_folder is required")
	}
	if strings.TrimSpace(c.Input.OutputFolder) == "" {
		return fmt.Errorf("output_folder is required")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.Retry.MaxRetries)
	}
	switch c.API.Backend {
	case "http":
		if strings.TrimSpace(c.API.URL) == "" {
			return fmt.Errorf("api url is required for the http backend")
		}
	case "gemini":
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return fmt.Errorf("gemini api_key is required for the gemini backend")
		}
	default:
		return fmt.Errorf("unknown api backend %q", c.API.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
}
