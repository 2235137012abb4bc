package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/retrieval"
	"github.com/arlo-ai/arlo/internal/testutil"
)

func seedChunks(t *testing.T, store *knowledge.MemoryStore, tenantID string, chunks []knowledge.Chunk) {
	t.Helper()
	ctx := context.Background()

	doc := &knowledge.Document{TenantID: tenantID, Name: "doc", SourceType: knowledge.SourceText, Status: knowledge.StatusReady}
	require.NoError(t, store.CreateDocument(ctx, doc))
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].ChunkIndex = i
		chunks[i].Embedding = testutil.PadVector(chunks[i].Embedding)
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))
}

func TestRetriever_OrdersBySimilarity(t *testing.T) {
	store := knowledge.NewMemoryStore()
	seedChunks(t, store, "t1", []knowledge.Chunk{
		{Content: "weak match", Embedding: []float32{0.5, 0.6, 0}},
		{Content: "strong match", Embedding: []float32{1, 0, 0}},
	})

	fake := &testutil.FakeEmbedder{Vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := retrieval.New(embed.New(fake, log.NewNop()), store, 5, 0.3, log.NewNop())

	matches, err := r.Retrieve(context.Background(), "t1", "query")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "strong match", matches[0].Content)
}

func TestRetriever_ThresholdOptions(t *testing.T) {
	store := knowledge.NewMemoryStore()
	seedChunks(t, store, "t1", []knowledge.Chunk{
		{Content: "borderline", Embedding: []float32{0.6, 0.8, 0}}, // similarity 0.6
	})

	fake := &testutil.FakeEmbedder{Vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := retrieval.New(embed.New(fake, log.NewNop()), store, 5, 0.7, log.NewNop())

	// Default (strict) threshold filters the chunk out.
	matches, err := r.Retrieve(context.Background(), "t1", "query")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// A looser per-call threshold lets it through.
	matches, err = r.Retrieve(context.Background(), "t1", "query", retrieval.WithThreshold(0.5))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRetriever_TopKOption(t *testing.T) {
	store := knowledge.NewMemoryStore()
	var chunks []knowledge.Chunk
	for range 8 {
		chunks = append(chunks, knowledge.Chunk{Content: "c", Embedding: []float32{1, 0, 0}})
	}
	seedChunks(t, store, "t1", chunks)

	fake := &testutil.FakeEmbedder{Vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := retrieval.New(embed.New(fake, log.NewNop()), store, 5, 0, log.NewNop())

	matches, err := r.Retrieve(context.Background(), "t1", "query", retrieval.WithTopK(2))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRetriever_TenantIsolation(t *testing.T) {
	store := knowledge.NewMemoryStore()
	seedChunks(t, store, "other-tenant", []knowledge.Chunk{
		{Content: "not yours", Embedding: []float32{1, 0, 0}},
	})

	fake := &testutil.FakeEmbedder{Vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := retrieval.New(embed.New(fake, log.NewNop()), store, 5, 0, log.NewNop())

	matches, err := r.Retrieve(context.Background(), "t1", "query")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetriever_EmbedFailurePropagates(t *testing.T) {
	store := knowledge.NewMemoryStore()
	fake := &testutil.FakeEmbedder{Err: errors.New("provider down")}
	r := retrieval.New(embed.New(fake, log.NewNop()), store, 5, 0, log.NewNop())

	_, err := r.Retrieve(context.Background(), "t1", "query")
	assert.Error(t, err)
}
