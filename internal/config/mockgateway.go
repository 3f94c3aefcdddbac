package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MockGatewayConfig configures the local gateway double
type MockGatewayConfig struct {
	Listen                string         `yaml:"listen"`
	LogLevel              string         `yaml:"log_level"`
	APIKeys               []APIKeyConfig `yaml:"api_keys"`
	MinCompressibleTokens int            `yaml:"min_compressible_tokens"`
	Reply                 string         `yaml:"reply"`
}

// APIKeyConfig is an account known to the mock gateway
type APIKeyConfig struct {
	Key         string `yaml:"key"`
	Compression bool   `yaml:"compression"`
}

// Lookup returns the account for key
func (c *MockGatewayConfig) Lookup(key string) (APIKeyConfig, bool) {
	for _, k := range c.APIKeys {
		if k.Key == key {
			return k, true
		}
	}
	return APIKeyConfig{}, false
}

// DefaultMockGatewayConfig accepts "test-key" with compression enabled
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		Listen:                ":8001",
		LogLevel:              "info",
		APIKeys:               []APIKeyConfig{{Key: "test-key", Compression: true}},
		MinCompressibleTokens: 8,
	}
}

// LoadMockGatewayConfig loads the mock gateway configuration from a YAML file
func LoadMockGatewayConfig(path string) (*MockGatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultMockGatewayConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.MinCompressibleTokens < 0 {
		return nil, fmt.Errorf("min_compressible_tokens must not be negative")
	}
	return cfg, nil
}
