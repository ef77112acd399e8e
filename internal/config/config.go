// Package config loads server configuration from the environment.
// Flags layered on top by the CLI override individual fields.
package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs to reach the lifecycle API
// and the log storage account.
type Config struct {
	// APIBaseURL is the deployment-management API root, e.g.
	// https://lifecycle.example.com/api/v1
	APIBaseURL string `env:"PAAS_API_URL"`

	// APIKey authenticates lifecycle API calls.
	APIKey string `env:"PAAS_API_KEY"`

	// StorageConnectionString, when set, bypasses the lifecycle API's
	// storage-info endpoint and is used directly for log access.
	StorageConnectionString string `env:"PAAS_STORAGE_CONNECTION_STRING"`

	// LogContainer is the storage container holding partitioned log blobs.
	LogContainer string `env:"PAAS_LOG_CONTAINER" envDefault:"applogs"`

	// SASExpiryHours bounds the lifetime of generated SAS tokens.
	SASExpiryHours int `env:"PAAS_SAS_EXPIRY_HOURS" envDefault:"24"`

	// MaxListPages overrides the blob enumeration page cap when > 0.
	MaxListPages int `env:"PAAS_MAX_LIST_PAGES"`

	// Verbose enables debug-level logging.
	Verbose bool `env:"PAAS_VERBOSE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateAPI checks the fields required for lifecycle API calls.
func (c *Config) ValidateAPI() error {
	if c.APIBaseURL == "" {
		return errors.New("API base URL is empty (set PAAS_API_URL or --api-url)")
	}
	if c.APIKey == "" {
		return errors.New("API key is empty (set PAAS_API_KEY or --api-key)")
	}
	return nil
}
