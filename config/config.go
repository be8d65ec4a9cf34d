// Package config loads declarative framework configuration from YAML.
// Deep components never read the environment themselves; the CLI resolves
// credentials at the edge and passes them down explicitly through this
// structure.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentweave/agentweave/model"
)

// Duration wraps time.Duration so YAML values like "2s" or "5m" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// RetryConfig mirrors model.RetryConfig in YAML-friendly form.
type RetryConfig struct {
	MaxAttempts          int      `yaml:"max_attempts"`
	InitialDelay         Duration `yaml:"initial_delay"`
	MaxDelay             Duration `yaml:"max_delay"`
	BackoffMultiplier    float64  `yaml:"backoff_multiplier"`
	RetryableStatusCodes []int    `yaml:"retryable_status_codes"`
}

// ServerConfig configures the optional HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration document.
type Config struct {
	// Provider selects the model backend: "gemini", "openai" or "anthropic".
	Provider string `yaml:"provider"`
	// Model names the provider model, e.g. "gemini-2.0-flash".
	Model string `yaml:"model"`
	// APIKey authenticates against the provider. Usually injected by the
	// CLI from the environment rather than written to disk.
	APIKey string `yaml:"api_key"`

	Retry RetryConfig `yaml:"retry"`

	// MaxLoopIterations caps loop composers built from this config.
	MaxLoopIterations int `yaml:"max_loop_iterations"`
	// MaxModelCalls caps model calls per run.
	MaxModelCalls int `yaml:"max_model_calls"`

	Server ServerConfig `yaml:"server"`
}

// Default returns a configuration with working defaults for everything but
// the API key.
func Default() *Config {
	retry := model.DefaultRetryConfig()

	return &Config{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		Retry: RetryConfig{
			MaxAttempts:          retry.MaxAttempts,
			InitialDelay:         Duration(retry.InitialDelay),
			MaxDelay:             Duration(retry.MaxDelay),
			BackoffMultiplier:    retry.BackoffMultiplier,
			RetryableStatusCodes: retry.RetryableStatusCodes,
		},
		MaxLoopIterations: 10,
		MaxModelCalls:     100,
		Server:            ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks structural invariants.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}

	if c.Retry.BackoffMultiplier < 1 {
		return fmt.Errorf("retry.backoff_multiplier must be at least 1")
	}

	if c.MaxLoopIterations < 1 {
		return fmt.Errorf("max_loop_iterations must be at least 1")
	}

	return nil
}

// ToRetryConfig converts the YAML retry section into the model package's
// runtime form.
func (c *Config) ToRetryConfig() model.RetryConfig {
	return model.RetryConfig{
		MaxAttempts:          c.Retry.MaxAttempts,
		InitialDelay:         time.Duration(c.Retry.InitialDelay),
		MaxDelay:             time.Duration(c.Retry.MaxDelay),
		BackoffMultiplier:    c.Retry.BackoffMultiplier,
		RetryableStatusCodes: c.Retry.RetryableStatusCodes,
	}
}
