// Package ingest implements the document ingestion pipeline.
//
// Ingestion drives each document through a forward-only status state
// machine: queued -> processing -> {ready, failed}. A processing run fetches
// remote content when needed, chunks it, embeds all chunks in one batch and
// atomically replaces the document's chunk set. Reprocessing is idempotent:
// every run clears the previous error and rebuilds the chunks from scratch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arlo-ai/arlo/internal/embed"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
)

// ErrEmptyContent indicates a document resolved to empty or whitespace-only
// content and cannot be chunked.
var ErrEmptyContent = errors.New("document content is empty")

// ErrInvalidTransition indicates a processing run was requested for a
// document that is already being processed.
var ErrInvalidTransition = errors.New("document is not in a processable state")

// PageFetcher fetches a webpage and returns its visible text.
// Implemented by PageClient; faked in tests.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Pipeline orchestrates fetch, chunk, embed and persist for one document at
// a time. It holds no mutable state; concurrent runs for different documents
// are independent.
type Pipeline struct {
	store    knowledge.Store
	chunker  *knowledge.Chunker
	embedder *embed.Client
	pages    PageFetcher
	logger   log.Logger
}

// New creates a Pipeline.
func New(store knowledge.Store, chunker *knowledge.Chunker, embedder *embed.Client, pages PageFetcher, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		store:    store,
		chunker:  chunker,
		embedder: embedder,
		pages:    pages,
		logger:   logger,
	}
}

// CreateParams describes a new knowledge base document.
type CreateParams struct {
	TenantID   string
	Name       string
	SourceType knowledge.SourceType
	Content    string // inline text for text/file sources
	SourceURL  string // required for url sources
	Category   string
}

// Create persists a new document in the queued state. Content is set for
// inline sources and left empty for URL sources until processing fetches it.
func (p *Pipeline) Create(ctx context.Context, params CreateParams) (*knowledge.Document, error) {
	doc := &knowledge.Document{
		TenantID:   params.TenantID,
		Name:       params.Name,
		SourceType: params.SourceType,
		SourceURL:  params.SourceURL,
		Category:   params.Category,
		Status:     knowledge.StatusQueued,
	}
	if params.SourceType != knowledge.SourceURL {
		doc.Content = params.Content
	}

	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// Process runs the ingestion state machine for one document. Any failure
// between entering processing and completion marks the document failed with
// the captured message and returns the error to the caller.
func (p *Pipeline) Process(ctx context.Context, tenantID, documentID string) error {
	doc, err := p.store.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	if !doc.Status.CanTransitionTo(knowledge.StatusProcessing) {
		return fmt.Errorf("%w: status is %q", ErrInvalidTransition, doc.Status)
	}

	doc.Status = knowledge.StatusProcessing
	doc.ErrorMessage = ""
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to mark document processing: %w", err)
	}

	if err := p.run(ctx, doc); err != nil {
		p.markFailed(ctx, doc, err)
		return err
	}

	doc.Status = knowledge.StatusReady
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to mark document ready: %w", err)
	}

	p.logger.Info("document processed",
		"document_id", doc.ID, "tenant_id", doc.TenantID, "source_type", doc.SourceType)
	return nil
}

// run executes steps 2-5 of the state machine: fetch, chunk, embed, persist.
func (p *Pipeline) run(ctx context.Context, doc *knowledge.Document) error {
	if doc.SourceType == knowledge.SourceURL {
		text, err := p.pages.FetchText(ctx, doc.SourceURL)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", doc.SourceURL, err)
		}
		doc.Content = text
		if err := p.store.UpdateDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to store fetched content: %w", err)
		}
	}

	if strings.TrimSpace(doc.Content) == "" {
		return ErrEmptyContent
	}

	texts := p.chunker.Split(doc.Content)
	if len(texts) == 0 {
		return ErrEmptyContent
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
	}

	metadata := map[string]string{
		"document_name": doc.Name,
		"category":      doc.Category,
	}
	chunks := make([]knowledge.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = knowledge.Chunk{
			DocumentID: doc.ID,
			Content:    text,
			Embedding:  vectors[i],
			ChunkIndex: i,
			Metadata:   metadata,
		}
	}

	if err := p.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	p.logger.Debug("chunks replaced", "document_id", doc.ID, "chunk_count", len(chunks))
	return nil
}

// markFailed records a processing failure on the document. The update itself
// is best effort: the original error matters more than the bookkeeping one.
func (p *Pipeline) markFailed(ctx context.Context, doc *knowledge.Document, cause error) {
	doc.Status = knowledge.StatusFailed
	doc.ErrorMessage = cause.Error()
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error("failed to record document failure",
			"document_id", doc.ID, "cause", cause, "update_error", err)
	}
}
