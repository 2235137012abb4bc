package config

import (
	"fmt"
	"os"
	"slices"
)

// validSSLModes are the PostgreSQL sslmode values accepted by pgx.
var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is required for every embedding and completion call; fail fast
	// before any client is constructed.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required", ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Temperature range per Gemini API documentation.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.ChunkSize < 200 || c.ChunkSize > 20000 {
		return fmt.Errorf("%w: chunk_size must be between 200 and 20,000, got %d", ErrInvalidChunking, c.ChunkSize)
	}

	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be non-negative and smaller than chunk_size, got %d",
			ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: top_k must be between 1 and 20, got %d", ErrInvalidRetrieval, c.TopK)
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in [0,1], got %.2f",
			ErrInvalidRetrieval, c.SimilarityThreshold)
	}

	if c.LooseSimilarityThreshold < 0 || c.LooseSimilarityThreshold > 1 {
		return fmt.Errorf("%w: loose_similarity_threshold must be in [0,1], got %.2f",
			ErrInvalidRetrieval, c.LooseSimilarityThreshold)
	}

	if c.HistoryWindow < 1 || c.HistoryWindow > 100 {
		return fmt.Errorf("%w: history_window must be between 1 and 100, got %d",
			ErrInvalidRetrieval, c.HistoryWindow)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgres)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidPostgres, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgres)
	}

	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: sslmode must be one of %v, got %q",
			ErrInvalidPostgres, validSSLModes, c.PostgresSSLMode)
	}

	return nil
}
