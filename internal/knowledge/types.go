package knowledge

import (
	"fmt"
	"time"
)

// VectorDimension is the embedding dimension used across the system.
// gemini-embedding-001 is truncated to 768 dimensions; the chunks table
// schema declares vector(768) to match.
const VectorDimension = 768

// SnippetMaxLen bounds the excerpt carried by a SourceReference.
const SnippetMaxLen = 200

// SourceType identifies where a document's content comes from.
type SourceType string

// Document source types.
const (
	SourceText SourceType = "text"
	SourceURL  SourceType = "url"
	SourceFile SourceType = "file"
)

// DocumentStatus is the ingestion state of a document.
type DocumentStatus string

// Document statuses. Transitions only move forward:
// queued -> processing -> {ready, failed}. Reprocessing re-enters processing
// from ready or failed, never from processing.
const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is a legal status
// transition. The ingestion pipeline checks this before every update so a
// buggy caller cannot move a document backwards.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusReady || next == StatusFailed
	case StatusReady, StatusFailed:
		// Reprocessing starts a new run.
		return next == StatusProcessing
	default:
		return false
	}
}

// Document is a tenant-owned knowledge base entry.
// Content is empty until fetched for URL-sourced documents and is mutated
// only by the ingestion pipeline.
type Document struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Name         string         `json:"name"`
	SourceType   SourceType     `json:"source_type"`
	Content      string         `json:"content,omitempty"`
	SourceURL    string         `json:"source_url,omitempty"`
	Status       DocumentStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Category     string         `json:"category,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Chunk is a bounded slice of a document prepared for embedding.
// Chunks are created and fully replaced by each ingestion run.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Embedding  []float32
	ChunkIndex int
	Metadata   map[string]string
}

// MatchedChunk is a chunk returned by a similarity search.
type MatchedChunk struct {
	Chunk
	Similarity float32 // cosine similarity in [0,1]
}

// SourceReference attributes an answer to a knowledge base document.
// References are advisory: they are attached to every generated answer
// whether or not the model actually drew on them.
type SourceReference struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Snippet      string  `json:"snippet"`
	Similarity   float32 `json:"similarity"`
}

// NewSourceReference builds a SourceReference from a matched chunk,
// truncating the snippet to SnippetMaxLen characters.
func NewSourceReference(m MatchedChunk) SourceReference {
	snippet := m.Content
	if runes := []rune(snippet); len(runes) > SnippetMaxLen {
		snippet = string(runes[:SnippetMaxLen]) + "..."
	}
	return SourceReference{
		DocumentID:   m.DocumentID,
		DocumentName: m.Metadata["document_name"],
		Snippet:      snippet,
		Similarity:   m.Similarity,
	}
}

// ValidateEmbedding checks that an embedding matches the active model's
// dimension. Chunks with mismatched vectors must never reach the store.
func ValidateEmbedding(embedding []float32) error {
	if len(embedding) != VectorDimension {
		return fmt.Errorf("embedding dimension %d does not match expected %d", len(embedding), VectorDimension)
	}
	return nil
}
