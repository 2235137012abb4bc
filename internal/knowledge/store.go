package knowledge

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned when a document does not exist or belongs
// to a different tenant. Tenant mismatch is deliberately indistinguishable
// from absence so IDs cannot be probed across tenants.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists documents. Status and content fields are mutated
// only by the ingestion pipeline; admin surfaces read them.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, tenantID, id string) (*Document, error)
	ListDocuments(ctx context.Context, tenantID string) ([]*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, tenantID, id string) error
}

// ChunkStore persists chunk records and answers similarity queries.
type ChunkStore interface {
	// ReplaceChunks atomically swaps all chunks of a document for the given
	// set. A concurrent reader observes either the old set or the new set,
	// never a partial one.
	ReplaceChunks(ctx context.Context, documentID string, chunks []Chunk) error

	// SearchChunks returns chunks of the tenant's documents whose cosine
	// similarity to the query vector is at least threshold, ordered by
	// similarity descending, capped at topK. An empty result is not an error.
	SearchChunks(ctx context.Context, tenantID string, query []float32, threshold float32, topK int) ([]MatchedChunk, error)
}

// Store combines the document and chunk stores. Both provided
// implementations (Postgres, memory) satisfy it.
type Store interface {
	DocumentStore
	ChunkStore
}
