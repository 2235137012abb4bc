// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.arlo/config.yaml or ./config.yaml)
//  3. Default values
//
// Configuration categories:
//   - AI: model, embedder model, temperature, max tokens
//   - Storage: PostgreSQL connection (see storage.go)
//   - RAG: chunking and retrieval tuning
//   - GitHub: optional token for the repository lister
//   - Serve: HTTP listen address
//
// Sensitive values (API keys, passwords) are read only from the environment
// and are never logged. Validation lives in validation.go and uses sentinel
// errors so callers can check categories with errors.Is().
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required provider API key is missing.
	// This is the fatal misconfiguration case: no AI call may be attempted.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidRetrieval indicates retrieval tuning values are out of range.
	ErrInvalidRetrieval = errors.New("invalid retrieval configuration")

	// ErrInvalidPostgres indicates the PostgreSQL connection settings are invalid.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation to 768; the chunks table schema uses vector(768).
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultModelName is the default chat completion model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultChunkSize is the chunk window in characters, tuned to roughly
	// 500 tokens of prose.
	DefaultChunkSize = 2000

	// DefaultChunkOverlap is the overlap between adjacent chunks.
	DefaultChunkOverlap = 400

	// DefaultTopK is the default number of chunks retrieved per query.
	DefaultTopK = 5

	// DefaultSimilarityThreshold filters retrieval for direct user queries.
	DefaultSimilarityThreshold = 0.5

	// DefaultLooseSimilarityThreshold filters retrieval when the query has
	// been rewritten from conversation context; rewritten queries drift from
	// the literal wording of stored chunks, so the gate is looser.
	DefaultLooseSimilarityThreshold = 0.35

	// DefaultHistoryWindow is the number of recent conversation turns given
	// to the model as context.
	DefaultHistoryWindow = 8
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName     string  `mapstructure:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`

	// RAG tuning
	ChunkSize                int     `mapstructure:"chunk_size"`
	ChunkOverlap             int     `mapstructure:"chunk_overlap"`
	TopK                     int     `mapstructure:"top_k"`
	SimilarityThreshold      float32 `mapstructure:"similarity_threshold"`
	LooseSimilarityThreshold float32 `mapstructure:"loose_similarity_threshold"`
	HistoryWindow            int     `mapstructure:"history_window"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// GitHub token for the repository lister. Optional; unauthenticated
	// requests work with a lower rate limit.
	GitHubToken string `mapstructure:"github_token"` // SENSITIVE: never logged

	// HTTP server listen address
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".arlo")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)

	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("loose_similarity_threshold", DefaultLooseSimilarityThreshold)
	v.SetDefault("history_window", DefaultHistoryWindow)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "arlo")
	v.SetDefault("postgres_password", "arlo_dev_password")
	v.SetDefault("postgres_db_name", "arlo")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("listen_addr", "127.0.0.1:3500")
}

// bindEnvVariables binds secrets explicitly. Only secrets come from the
// environment by name; everything else goes through the config file.
func bindEnvVariables(v *viper.Viper) {
	// Errors only occur for empty keys, which cannot happen here.
	_ = v.BindEnv("postgres_password", "ARLO_POSTGRES_PASSWORD")
	_ = v.BindEnv("github_token", "GITHUB_TOKEN")
}
