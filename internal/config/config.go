package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBase = "https://api.edgee.ai"

	TransportHTTP   = "http"
	TransportOpenAI = "openai"
)

// GatewayConfig is the static configuration of a gateway client. It never
// holds the API key, which is passed to the client explicitly.
type GatewayConfig struct {
	APIBase        string            `yaml:"api_base"`
	Transport      string            `yaml:"transport"`
	Timeout        time.Duration     `yaml:"timeout"`
	LogLevel       string            `yaml:"log_level"`
	DisabledParams []string          `yaml:"disabled_params,omitempty"`
	Retry          RetryConfig       `yaml:"retry"`
	RateLimit      RateLimitConfig   `yaml:"rate_limit"`
	Compression    CompressionConfig `yaml:"compression"`
}

// RetryConfig controls how transient provider failures are retried
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RateLimitConfig throttles outgoing requests. Zero RequestsPerSecond means unlimited.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CompressionConfig describes what the account supports. Enabled nil means
// supported; DefaultRate nil leaves the rate to the provider.
type CompressionConfig struct {
	Enabled     *bool    `yaml:"enabled,omitempty"`
	DefaultRate *float64 `yaml:"default_rate,omitempty"`
}

// Supported reports whether compression directives may be sent
func (c CompressionConfig) Supported() bool {
	return c.Enabled == nil || *c.Enabled
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *GatewayConfig {
	return &GatewayConfig{
		APIBase:   DefaultAPIBase,
		Transport: TransportHTTP,
		Timeout:   30 * time.Second,
		LogLevel:  "info",
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
		RateLimit: RateLimitConfig{Burst: 1},
	}
}

// LoadConfig loads configuration from a YAML file. Fields missing from the
// file keep their DefaultConfig values.
func LoadConfig(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at request time
func (c *GatewayConfig) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportOpenAI:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < 0 {
		return fmt.Errorf("retry backoff must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if r := c.Compression.DefaultRate; r != nil && (*r < 0 || *r > 1) {
		return fmt.Errorf("compression.default_rate %v is outside [0,1]", *r)
	}
	return nil
}
