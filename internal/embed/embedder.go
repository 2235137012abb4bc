// Package embed wraps a Genkit embedder behind single and batch operations.
//
// The wrapper enforces the fail-fast configuration contract: a Client built
// without an embedder returns ErrNotConfigured before any network call, so a
// missing API key surfaces as a configuration failure instead of a request
// timeout deep inside a pipeline run.
package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
)

// ErrNotConfigured indicates the embedding provider is missing or unusable.
// Fatal: callers must not retry or degrade around it.
var ErrNotConfigured = errors.New("embedding provider not configured")

// embedTimeout bounds a single embedding API call.
const embedTimeout = 30 * time.Second

// Client generates vector embeddings via a Genkit ai.Embedder.
type Client struct {
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Client. The embedder may be nil; every call then fails with
// ErrNotConfigured.
func New(embedder ai.Embedder, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{embedder: embedder, logger: logger}
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one provider call, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := c.embedder.Embed(embedCtx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding timeout after %s: %w", embedTimeout, err)
		}
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors",
			len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if len(embedding.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding returned for text %d", i)
		}
		vectors[i] = embedding.Embedding
	}

	c.logger.Debug("generated embeddings", "count", len(vectors), "dimension", len(vectors[0]))
	return vectors, nil
}

// Dimension returns the embedding dimension the system is configured for.
func (c *Client) Dimension() int {
	return knowledge.VectorDimension
}
