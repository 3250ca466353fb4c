// Package config loads engine configuration from config.yaml and the
// environment. Environment variables always override YAML values; secrets
// only ever come from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the sync engine.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	Remote    RemoteConfig    `yaml:"remote"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	LLM       LLMConfig       `yaml:"llm"`
}

// RemoteConfig holds the remote store endpoint settings.
type RemoteConfig struct {
	// BaseURL is the authoritative API root, e.g. https://api.storycanvas.dev
	BaseURL string `yaml:"base_url" env:"REMOTE_BASE_URL" env-default:"http://localhost:8000/api"`
	// TimeoutSeconds caps each round trip to the remote store.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"REMOTE_TIMEOUT_SECONDS" env-default:"30"`
}

// Timeout returns the per-request timeout as a duration.
func (r *RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// CacheConfig holds the local cache store settings.
type CacheConfig struct {
	// Path is the SQLite database file. ":memory:" is valid for tests.
	Path string `yaml:"path" env:"CACHE_PATH" env-default:"storycanvas.db"`
}

// RateLimitConfig throttles outbound remote calls.
type RateLimitConfig struct {
	// MaxPerWindow is the maximum calls allowed in any rolling window.
	MaxPerWindow int `yaml:"max_per_window" env:"RATE_MAX_PER_WINDOW" env-default:"6"`
	// WindowSeconds is the rolling window length.
	WindowSeconds int `yaml:"window_seconds" env:"RATE_WINDOW_SECONDS" env-default:"60"`
	// MinSpacingSeconds is the minimum gap imposed between calls issued
	// within the burst window.
	MinSpacingSeconds int `yaml:"min_spacing_seconds" env:"RATE_MIN_SPACING_SECONDS" env-default:"10"`
	// BurstWindowSeconds is how far back to look when deciding whether the
	// minimum spacing applies.
	BurstWindowSeconds int `yaml:"burst_window_seconds" env:"RATE_BURST_WINDOW_SECONDS" env-default:"5"`
	// MaxRetries bounds backoff retries after a rate-limited response.
	MaxRetries int `yaml:"max_retries" env:"RATE_MAX_RETRIES" env-default:"3"`
	// BackoffBaseSeconds is the initial backoff delay, doubled per attempt.
	BackoffBaseSeconds int `yaml:"backoff_base_seconds" env:"RATE_BACKOFF_BASE_SECONDS" env-default:"5"`
}

// Window returns the rolling window length as a duration.
func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// MinSpacing returns the burst spacing as a duration.
func (r *RateLimitConfig) MinSpacing() time.Duration {
	return time.Duration(r.MinSpacingSeconds) * time.Second
}

// BurstWindow returns the burst lookback as a duration.
func (r *RateLimitConfig) BurstWindow() time.Duration {
	return time.Duration(r.BurstWindowSeconds) * time.Second
}

// BackoffBase returns the initial backoff delay as a duration.
func (r *RateLimitConfig) BackoffBase() time.Duration {
	return time.Duration(r.BackoffBaseSeconds) * time.Second
}

// LLMConfig holds optional settings for the scenario-enhancement pass.
// When APIKey is empty the enhancement pass is skipped entirely.
type LLMConfig struct {
	// Provider selects the client: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// IsConfigured reports whether the enhancement pass can run.
func (l *LLMConfig) IsConfigured() bool {
	return l.APIKey != "" && l.Model != ""
}

// Load reads config.yaml (if present) and applies environment overrides.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if cfg.RateLimit.MaxPerWindow <= 0 {
		return nil, fmt.Errorf("rate_limit.max_per_window must be positive")
	}
	if cfg.Remote.BaseURL == "" {
		return nil, fmt.Errorf("remote.base_url is required")
	}

	return cfg, nil
}

// WriteDefault writes a commented starter config.yaml to path. Secrets are
// deliberately absent; they only come from the environment.
func WriteDefault(path string) error {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("build defaults: %w", err)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
