// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (TALENTCHAT_* plus GEMINI_API_KEY / DATABASE_URL)
//  2. Config file (./talentchat.yaml)
//  3. Default values
//
// Categories:
//   - AI: chat model, ordered fallback models, embedder model
//   - Storage: PostgreSQL connection for the persistent vector store
//   - HTTP: listen address
//   - Retrieval: default top-k
//
// Sensitive values (API key, database password) are masked in String().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidModelName indicates a chat or fallback model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model name is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidTopK indicates the retrieval top-k default is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")
)

const (
	// DefaultChatModel is the primary chat-completion model.
	DefaultChatModel = "googleai/gemini-2.5-flash"

	// DefaultFallbackModel is the smaller model tried when the primary
	// model name is not recognized by the provider.
	DefaultFallbackModel = "googleai/gemini-2.5-flash-lite"

	// DefaultEmbedderModel is the embeddings model. Output dimensionality
	// is truncated to rag.VectorDimension (1536) to match the vector schema.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultHTTPAddr is the default HTTP listen address.
	DefaultHTTPAddr = "127.0.0.1:8080"

	// DefaultRetrievalTopK is the default number of context chunks fetched
	// per chat turn.
	DefaultRetrievalTopK = 4

	// MaxRetrievalTopK bounds top-k to keep prompt sizes sane.
	MaxRetrievalTopK = 20
)

// Config stores application configuration.
type Config struct {
	// AI configuration
	GeminiAPIKey   string   `mapstructure:"gemini_api_key"`
	ChatModel      string   `mapstructure:"chat_model"`
	FallbackModels []string `mapstructure:"fallback_models"`
	EmbedderModel  string   `mapstructure:"embedder_model"`

	// Retrieval
	RetrievalTopK int `mapstructure:"retrieval_top_k"`

	// PostgreSQL (persistent vector store)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// HTTP server
	HTTPAddr string `mapstructure:"http_addr"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, an optional talentchat.yaml in the
// working directory, and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("fallback_models", []string{DefaultFallbackModel})
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("retrieval_top_k", DefaultRetrievalTopK)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "talentchat")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "talentchat")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("http_addr", DefaultHTTPAddr)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetConfigName("talentchat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TALENTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults + env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// GEMINI_API_KEY is the conventional variable for the googlegenai
	// plugin; honor it directly so deployments don't need the prefix form.
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	// DATABASE_URL overrides the discrete postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded",
		"chat_model", cfg.ChatModel,
		"fallback_models", cfg.FallbackModels,
		"embedder_model", cfg.EmbedderModel,
		"embeddings_enabled", cfg.GeminiAPIKey != "",
	)

	return &cfg, nil
}

// String returns a loggable representation with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{ChatModel:%s Fallbacks:%v Embedder:%s APIKey:%s Postgres:%s:%d/%s Addr:%s}",
		c.ChatModel, c.FallbackModels, c.EmbedderModel,
		mask(c.GeminiAPIKey),
		c.PostgresHost, c.PostgresPort, c.PostgresDBName,
		c.HTTPAddr,
	)
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "***"
}
