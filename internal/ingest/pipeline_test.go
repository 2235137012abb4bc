package ingest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/ingest"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/testutil"
)

// fakePages implements ingest.PageFetcher.
type fakePages struct {
	text string
	err  error
	urls []string
}

func (f *fakePages) FetchText(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}

type pipelineFixture struct {
	store    *knowledge.MemoryStore
	embedder *testutil.FakeEmbedder
	pages    *fakePages
	pipeline *ingest.Pipeline
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	store := knowledge.NewMemoryStore()
	embedder := &testutil.FakeEmbedder{}
	pages := &fakePages{}
	pipeline := ingest.New(store, knowledge.NewChunker(2000, 400), embed.New(embedder, log.NewNop()), pages, log.NewNop())
	return &pipelineFixture{store: store, embedder: embedder, pages: pages, pipeline: pipeline}
}

func TestPipeline_CreateQueuesDocument(t *testing.T) {
	f := newFixture(t)

	doc, err := f.pipeline.Create(context.Background(), ingest.CreateParams{
		TenantID:   "t1",
		Name:       "bio",
		SourceType: knowledge.SourceText,
		Content:    "Short biography.",
		Category:   "about",
	})
	require.NoError(t, err)

	assert.Equal(t, knowledge.StatusQueued, doc.Status)
	assert.Equal(t, "Short biography.", doc.Content)
}

func TestPipeline_CreateURLDocumentHasNoContentYet(t *testing.T) {
	f := newFixture(t)

	doc, err := f.pipeline.Create(context.Background(), ingest.CreateParams{
		TenantID:   "t1",
		Name:       "homepage",
		SourceType: knowledge.SourceURL,
		Content:    "ignored for url sources",
		SourceURL:  "https://example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, doc.Content)
}

func TestPipeline_ProcessSmallTextDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := strings.Repeat("a", 100)
	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "small", SourceType: knowledge.SourceText, Content: content,
	})
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Process(ctx, "t1", doc.ID))

	got, err := f.store.GetDocument(ctx, "t1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, knowledge.StatusReady, got.Status)
	assert.Empty(t, got.ErrorMessage)

	// 100 characters fit one window: one chunk, one batched embed call.
	matches, err := f.store.SearchChunks(ctx, "t1", testutil.PadVector([]float32{1}), -1, 100)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, content, matches[0].Content)
	assert.Equal(t, 1, f.embedder.CallCount())
}

func TestPipeline_ProcessLargeTextDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sentence := "The archive holds decades of project notes and retrospectives. "
	content := strings.Repeat(sentence, 3000/len(sentence)+1)[:3000]

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "large", SourceType: knowledge.SourceText, Content: content, Category: "notes",
	})
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(ctx, "t1", doc.ID))

	matches, err := f.store.SearchChunks(ctx, "t1", testutil.PadVector([]float32{1}), -1, 100)
	require.NoError(t, err)
	require.Greater(t, len(matches), 1, "3,000 chars must produce multiple chunks")

	// Chunk count equals embedding count: the batch call carried every chunk.
	require.Equal(t, 1, f.embedder.CallCount())
	assert.Len(t, f.embedder.Calls[0], len(matches))

	// Shared metadata is stamped on every chunk.
	for _, m := range matches {
		assert.Equal(t, "large", m.Metadata["document_name"])
		assert.Equal(t, "notes", m.Metadata["category"])
	}
}

func TestPipeline_ProcessURLDocument(t *testing.T) {
	f := newFixture(t)
	f.pages.text = "Visible page text about the tenant's work."
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "site", SourceType: knowledge.SourceURL, SourceURL: "https://example.com/about",
	})
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(ctx, "t1", doc.ID))

	assert.Equal(t, []string{"https://example.com/about"}, f.pages.urls)

	got, err := f.store.GetDocument(ctx, "t1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, knowledge.StatusReady, got.Status)
	assert.Equal(t, f.pages.text, got.Content)
}

func TestPipeline_FetchFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.pages.err = errors.New("connection refused")
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "site", SourceType: knowledge.SourceURL, SourceURL: "https://example.com",
	})
	require.NoError(t, err)

	err = f.pipeline.Process(ctx, "t1", doc.ID)
	require.Error(t, err)

	got, _ := f.store.GetDocument(ctx, "t1", doc.ID)
	assert.Equal(t, knowledge.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "connection refused")
}

func TestPipeline_EmptyContentFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "blank", SourceType: knowledge.SourceText, Content: "   \n\t ",
	})
	require.NoError(t, err)

	err = f.pipeline.Process(ctx, "t1", doc.ID)
	assert.ErrorIs(t, err, ingest.ErrEmptyContent)

	got, _ := f.store.GetDocument(ctx, "t1", doc.ID)
	assert.Equal(t, knowledge.StatusFailed, got.Status)
}

func TestPipeline_EmbedFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.embedder.Err = errors.New("embedding provider down")
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "doc", SourceType: knowledge.SourceText, Content: "Some content.",
	})
	require.NoError(t, err)

	require.Error(t, f.pipeline.Process(ctx, "t1", doc.ID))

	got, _ := f.store.GetDocument(ctx, "t1", doc.ID)
	assert.Equal(t, knowledge.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "embedding provider down")
}

func TestPipeline_ReprocessClearsErrorAndRebuildsChunks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "doc", SourceType: knowledge.SourceText, Content: "First version.",
	})
	require.NoError(t, err)

	// First run fails at the embedder.
	f.embedder.Err = errors.New("transient outage")
	require.Error(t, f.pipeline.Process(ctx, "t1", doc.ID))

	// Second run succeeds: error cleared, chunks rebuilt.
	f.embedder.Err = nil
	require.NoError(t, f.pipeline.Process(ctx, "t1", doc.ID))

	got, err := f.store.GetDocument(ctx, "t1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, knowledge.StatusReady, got.Status)
	assert.Empty(t, got.ErrorMessage)

	matches, err := f.store.SearchChunks(ctx, "t1", testutil.PadVector([]float32{1}), -1, 100)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestPipeline_SubmitRunsInBackground(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "doc", SourceType: knowledge.SourceText, Content: "Background content.",
	})
	require.NoError(t, err)

	task := f.pipeline.Submit(ctx, "t1", doc.ID)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, task.Wait(waitCtx))

	got, _ := f.store.GetDocument(ctx, "t1", doc.ID)
	assert.Equal(t, knowledge.StatusReady, got.Status)
}

func TestPipeline_SubmitSurfacesFailureOnHandle(t *testing.T) {
	f := newFixture(t)
	f.embedder.Err = errors.New("boom")
	ctx := context.Background()

	doc, err := f.pipeline.Create(ctx, ingest.CreateParams{
		TenantID: "t1", Name: "doc", SourceType: knowledge.SourceText, Content: "content",
	})
	require.NoError(t, err)

	task := f.pipeline.Submit(ctx, "t1", doc.ID)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	assert.ErrorContains(t, task.Wait(waitCtx), "boom")
}
