package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks all configuration values and returns a sentinel-wrapped
// error for the first violation found.
func (c *Config) Validate() error {
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateRetrieval(); err != nil {
		return err
	}
	return c.validatePostgres()
}

func (c *Config) validateModels() error {
	if strings.TrimSpace(c.ChatModel) == "" {
		return fmt.Errorf("%w: chat_model must not be empty", ErrInvalidModelName)
	}
	for i, m := range c.FallbackModels {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: fallback_models[%d] must not be empty", ErrInvalidModelName, i)
		}
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder_model must not be empty", ErrInvalidEmbedderModel)
	}
	return nil
}

func (c *Config) validateRetrieval() error {
	if c.RetrievalTopK < 1 || c.RetrievalTopK > MaxRetrievalTopK {
		return fmt.Errorf("%w: retrieval_top_k must be in [1, %d], got %d",
			ErrInvalidTopK, MaxRetrievalTopK, c.RetrievalTopK)
	}
	return nil
}

func (c *Config) validatePostgres() error {
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port must be in [1, 65535], got %d",
			ErrInvalidPostgresPort, c.PostgresPort)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q is not a valid sslmode",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
	return nil
}
