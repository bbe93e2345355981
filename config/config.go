/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"time"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/storagemodels"
)

// Backends that Open knows how to build.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendDynamoDB = "dynamodb"
)

// Config selects and configures the storage backend.
type Config struct {
	Backend   string `env:"RESOURCESTORE_BACKEND"`
	DSN       string `env:"RESOURCESTORE_DSN"`
	Resources string `env:"RESOURCESTORE_RESOURCES"`

	AWSRegion    string `env:"AWS_REGION"`
	AWSAccessKey string `env:"AWS_ACCESS_KEY"`
	AWSSecretKey string `env:"AWS_SECRET_KEY"`
	DDBTable     string `env:"AWS_DDB_TABLE"`
	DDBEndpoint  string `env:"AWS_DDB_ENDPOINT"`

	MaxRetries   int           `env:"RESOURCESTORE_MAX_RETRIES"`
	RetryBackoff time.Duration `env:"RESOURCESTORE_RETRY_BACKOFF"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	Metrics bool `env:"RESOURCESTORE_METRICS"`
	Tracing bool `env:"RESOURCESTORE_TRACING"`
}

// Default returns the configuration used before any file or variable is read.
func Default() Config {
	retry := storagemodels.DefaultRetryOptions()
	return Config{
		Backend:      BackendMemory,
		Resources:    "resources.yaml",
		AWSRegion:    "us-east-1",
		MaxRetries:   retry.MaxRetries,
		RetryBackoff: retry.RetryBackoff,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load starts from Default, applies the dotenv files in order and then the process
// environment, and validates the result.
func Load(files ...string) (Config, error) {
	cfg := Default()
	loader := NewChainLoader(
		NewFileLoader(files...),
		NewEnvLoader(),
	)
	if err := loader.Load(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite, BackendPostgres, BackendMySQL:
		if c.DSN == "" {
			return errors.NewValidationError("RESOURCESTORE_DSN", fmt.Sprintf("required by the %s backend", c.Backend))
		}
	case BackendDynamoDB:
		if c.DDBTable == "" {
			return errors.NewValidationError("AWS_DDB_TABLE", "required by the dynamodb backend")
		}
	default:
		return errors.NewValidationError("RESOURCESTORE_BACKEND", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	if c.MaxRetries < 0 {
		return errors.NewValidationError("RESOURCESTORE_MAX_RETRIES", "must not be negative")
	}
	if c.RetryBackoff < 0 {
		return errors.NewValidationError("RESOURCESTORE_RETRY_BACKOFF", "must not be negative")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.NewValidationError("LOG_FORMAT", fmt.Sprintf("expected text or json, got %q", c.LogFormat))
	}
	return nil
}

// RetryOptions translates the retry settings for the DynamoDB store.
func (c Config) RetryOptions() []storagemodels.RetryOption {
	return []storagemodels.RetryOption{
		storagemodels.WithMaxRetries(c.MaxRetries),
		storagemodels.WithRetryBackoff(c.RetryBackoff),
	}
}
