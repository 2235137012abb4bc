package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and hermetic development
// runs. It mirrors the PostgresStore contract, including the atomic chunk
// swap: ReplaceChunks holds the write lock for the whole swap.
//
// MemoryStore is safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*Document // document ID -> document
	chunks    map[string][]Chunk   // document ID -> ordered chunks
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*Document),
		chunks:    make(map[string][]Chunk),
	}
}

// CreateDocument stores a copy of doc.
func (s *MemoryStore) CreateDocument(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	stored := *doc
	s.documents[doc.ID] = &stored
	return nil
}

// GetDocument returns a copy of the document, tenant-scoped.
func (s *MemoryStore) GetDocument(_ context.Context, tenantID, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return nil, ErrDocumentNotFound
	}
	out := *doc
	return &out, nil
}

// ListDocuments returns the tenant's documents, newest first.
func (s *MemoryStore) ListDocuments(_ context.Context, tenantID string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []*Document
	for _, doc := range s.documents {
		if doc.TenantID != tenantID {
			continue
		}
		out := *doc
		docs = append(docs, &out)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

// UpdateDocument overwrites the mutable fields of an existing document.
func (s *MemoryStore) UpdateDocument(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.documents[doc.ID]
	if !ok || existing.TenantID != doc.TenantID {
		return ErrDocumentNotFound
	}

	existing.Name = doc.Name
	existing.Content = doc.Content
	existing.Status = doc.Status
	existing.ErrorMessage = doc.ErrorMessage
	existing.Category = doc.Category
	existing.UpdatedAt = time.Now()
	doc.UpdatedAt = existing.UpdatedAt
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *MemoryStore) DeleteDocument(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return ErrDocumentNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// ReplaceChunks swaps a document's chunk set under the write lock.
func (s *MemoryStore) ReplaceChunks(_ context.Context, documentID string, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]Chunk, len(chunks))
	for i, chunk := range chunks {
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		replacement[i] = chunk
	}
	s.chunks[documentID] = replacement
	return nil
}

// SearchChunks scores every chunk of the tenant's documents by cosine
// similarity and returns the qualifying top-k.
func (s *MemoryStore) SearchChunks(_ context.Context, tenantID string, query []float32, threshold float32, topK int) ([]MatchedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	var matches []MatchedChunk
	for docID, chunks := range s.chunks {
		doc, ok := s.documents[docID]
		if !ok || doc.TenantID != tenantID {
			continue
		}
		for _, chunk := range chunks {
			similarity := cosineSimilarity(query, chunk.Embedding)
			if similarity >= threshold {
				matches = append(matches, MatchedChunk{Chunk: chunk, Similarity: similarity})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
