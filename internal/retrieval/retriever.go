// Package retrieval implements tenant-scoped vector search over the
// knowledge base.
package retrieval

import (
	"context"
	"fmt"

	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
)

// Option configures a single retrieval using the functional options pattern.
type Option func(*searchConfig)

type searchConfig struct {
	topK      int
	threshold float32
}

// WithTopK caps the number of returned chunks. Default is 5.
func WithTopK(k int) Option {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithThreshold sets the minimum cosine similarity for a chunk to qualify.
// Different call sites use different thresholds: direct queries gate
// strictly, rewritten queries loosely.
func WithThreshold(threshold float32) Option {
	return func(c *searchConfig) {
		c.threshold = threshold
	}
}

// Retriever embeds a query and searches the tenant's chunks.
type Retriever struct {
	embedder         *embed.Client
	store            knowledge.ChunkStore
	defaultTopK      int
	defaultThreshold float32
	logger           log.Logger
}

// New creates a Retriever. defaultTopK and defaultThreshold apply when a
// call passes no overriding options.
func New(embedder *embed.Client, store knowledge.ChunkStore, defaultTopK int, defaultThreshold float32, logger log.Logger) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		embedder:         embedder,
		store:            store,
		defaultTopK:      defaultTopK,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// Retrieve returns the tenant's most similar chunks for the query text,
// ordered by similarity descending. An empty result means no relevant
// information; it is not an error.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string, opts ...Option) ([]knowledge.MatchedChunk, error) {
	cfg := &searchConfig{topK: r.defaultTopK, threshold: r.defaultThreshold}
	for _, opt := range opts {
		opt(cfg)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.store.SearchChunks(ctx, tenantID, vector, cfg.threshold, cfg.topK)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	r.logger.Debug("retrieved chunks",
		"tenant_id", tenantID,
		"match_count", len(matches),
		"top_k", cfg.topK,
		"threshold", cfg.threshold,
	)
	return matches, nil
}
