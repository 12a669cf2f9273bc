package config

import (
	"fmt"
	"os"

	"polygon-ingestor/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation and checks the feed and
// NATS sub-configs.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name cannot be empty")
	}

	if c.GRPC_Port <= 1024 || c.GRPC_Port > 65535 {
		return fmt.Errorf("invalid gRPC port number: %d (must be between 1025 and 65535)", c.GRPC_Port)
	}

	// Validate feed settings
	if c.Feed.APIKey == "" {
		return fmt.Errorf("feed api_key cannot be empty")
	}
	if c.Feed.StreamURL == "" {
		return fmt.Errorf("feed stream_url cannot be empty")
	}
	if c.Feed.APIURL == "" {
		return fmt.Errorf("feed api_url cannot be empty")
	}
	if len(c.Feed.Subscriptions) == 0 {
		return fmt.Errorf("feed subscriptions list cannot be empty")
	}
	if _, err := c.Subscriptions(); err != nil {
		return err
	}

	switch c.Feed.Serializer {
	case "", "json", "gob", "proto":
	default:
		return fmt.Errorf("unknown serializer %q (expected json, gob or proto)", c.Feed.Serializer)
	}

	// Validation of NATS config (minimal check)
	if len(c.NATS.Servers) == 0 {
		return fmt.Errorf("NATS servers list cannot be empty")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Subscriptions parses the configured "<kind>.<symbol>" entries into
// subscription values.
func (c *Config) Subscriptions() ([]models.MSubscription, error) {
	subscriptions := make([]models.MSubscription, 0, len(c.Feed.Subscriptions))
	for _, param := range c.Feed.Subscriptions {
		sub, err := models.ParseSubscription(param)
		if err != nil {
			return nil, fmt.Errorf("feed subscriptions: %w", err)
		}
		subscriptions = append(subscriptions, sub)
	}
	return subscriptions, nil
}
