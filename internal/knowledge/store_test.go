package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocument(t *testing.T, store *MemoryStore, tenantID, name string, chunks []Chunk) *Document {
	t.Helper()
	ctx := context.Background()

	doc := &Document{
		TenantID:   tenantID,
		Name:       name,
		SourceType: SourceText,
		Content:    "seeded",
		Status:     StatusReady,
	}
	require.NoError(t, store.CreateDocument(ctx, doc))

	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].ChunkIndex = i
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, chunks))
	return doc
}

func TestMemoryStore_DocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := &Document{TenantID: "t1", Name: "about", SourceType: SourceText, Status: StatusQueued}
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NotEmpty(t, doc.ID)

	got, err := store.GetDocument(ctx, "t1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "about", got.Name)
	assert.Equal(t, StatusQueued, got.Status)

	got.Status = StatusProcessing
	require.NoError(t, store.UpdateDocument(ctx, got))

	updated, err := store.GetDocument(ctx, "t1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	require.NoError(t, store.DeleteDocument(ctx, "t1", doc.ID))
	_, err = store.GetDocument(ctx, "t1", doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestMemoryStore_TenantScoping(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := &Document{TenantID: "t1", Name: "private", SourceType: SourceText, Status: StatusReady}
	require.NoError(t, store.CreateDocument(ctx, doc))

	// Another tenant cannot read, update, or delete the document.
	_, err := store.GetDocument(ctx, "t2", doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	stolen := *doc
	stolen.TenantID = "t2"
	assert.ErrorIs(t, store.UpdateDocument(ctx, &stolen), ErrDocumentNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "t2", doc.ID), ErrDocumentNotFound)
}

func TestMemoryStore_SearchNeverCrossesTenants(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	seedDocument(t, store, "t1", "mine", []Chunk{
		{Content: "tenant one content", Embedding: []float32{1, 0, 0}},
	})
	seedDocument(t, store, "t2", "theirs", []Chunk{
		{Content: "tenant two content", Embedding: []float32{1, 0, 0}},
	})

	matches, err := store.SearchChunks(ctx, "t1", []float32{1, 0, 0}, 0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "tenant one content", matches[0].Content)
}

func TestMemoryStore_SearchThresholdAndOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	seedDocument(t, store, "t1", "doc", []Chunk{
		{Content: "exact", Embedding: []float32{1, 0, 0}},
		{Content: "close", Embedding: []float32{0.9, 0.1, 0}},
		{Content: "far", Embedding: []float32{0, 1, 0}},
	})

	matches, err := store.SearchChunks(ctx, "t1", []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2, "orthogonal chunk must be filtered out")

	assert.Equal(t, "exact", matches[0].Content)
	assert.Equal(t, "close", matches[1].Content)
	assert.GreaterOrEqual(t, matches[0].Similarity, matches[1].Similarity)
}

func TestMemoryStore_SearchTopKCap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	chunks := make([]Chunk, 10)
	for i := range chunks {
		chunks[i] = Chunk{Content: "chunk", Embedding: []float32{1, 0, 0}}
	}
	seedDocument(t, store, "t1", "doc", chunks)

	matches, err := store.SearchChunks(ctx, "t1", []float32{1, 0, 0}, 0, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestMemoryStore_SearchEmptyIsNotAnError(t *testing.T) {
	store := NewMemoryStore()
	matches, err := store.SearchChunks(context.Background(), "nobody", []float32{1, 0, 0}, 0.9, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStore_ReplaceChunksSwapsWholeSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := seedDocument(t, store, "t1", "doc", []Chunk{
		{Content: "old one", Embedding: []float32{1, 0, 0}},
		{Content: "old two", Embedding: []float32{1, 0, 0}},
	})

	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, []Chunk{
		{DocumentID: doc.ID, Content: "new", Embedding: []float32{1, 0, 0}, ChunkIndex: 0},
	}))

	matches, err := store.SearchChunks(ctx, "t1", []float32{1, 0, 0}, 0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Content)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"dimension mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
