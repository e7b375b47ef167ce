package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file, resolves
// the access token from the environment, and validates the result.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	// Defaults
	if cfg.Dispatch.RemoteUser == "" {
		cfg.Dispatch.RemoteUser = "ubuntu"
	}
	if cfg.GCP.GPUCount == 0 {
		cfg.GCP.GPUCount = 1
	}

	if cfg.Dispatch.TokenEnv != "" {
		token, ok := os.LookupEnv(cfg.Dispatch.TokenEnv)
		if !ok || token == "" {
			return nil, fmt.Errorf("access token environment variable %s is not set", cfg.Dispatch.TokenEnv)
		}
		cfg.Dispatch.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
