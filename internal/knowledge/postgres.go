package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/arlo-ai/arlo/internal/log"
)

// searchTimeout bounds vector search queries so a slow index scan cannot
// stall a chat request.
const searchTimeout = 10 * time.Second

// PostgresStore implements Store on PostgreSQL with pgvector.
//
// PostgresStore is safe for concurrent use by multiple goroutines.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a PostgresStore. The pool must have pgvector
// types registered (see database.NewPool).
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// CreateDocument inserts a new document. A missing ID is generated; created
// and updated timestamps are set server-side.
func (s *PostgresStore) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO documents (id, tenant_id, name, source_type, content, source_url, status, error_message, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		doc.ID, doc.TenantID, doc.Name, string(doc.SourceType), doc.Content,
		doc.SourceURL, string(doc.Status), doc.ErrorMessage, doc.Category,
	)
	if err := row.Scan(&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create document %q: %w", doc.ID, err)
	}

	s.logger.Debug("created document", "id", doc.ID, "tenant_id", doc.TenantID, "source_type", doc.SourceType)
	return nil
}

// GetDocument fetches a document scoped to a tenant.
func (s *PostgresStore) GetDocument(ctx context.Context, tenantID, id string) (*Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, source_type, content, source_url, status, error_message, category, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %q: %w", id, err)
	}
	return doc, nil
}

// ListDocuments lists a tenant's documents, newest first.
func (s *PostgresStore) ListDocuments(ctx context.Context, tenantID string) ([]*Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name, source_type, content, source_url, status, error_message, category, created_at, updated_at
		FROM documents
		WHERE tenant_id = $1
		ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateDocument writes the mutable fields of a document and bumps
// updated_at. The write is tenant-scoped.
func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *Document) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET name = $3, content = $4, status = $5, error_message = $6, category = $7, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`,
		doc.TenantID, doc.ID, doc.Name, doc.Content,
		string(doc.Status), doc.ErrorMessage, doc.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to update document %q: %w", doc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// DeleteDocument removes a document. Chunks go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteDocument(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}

	s.logger.Debug("deleted document", "id", id, "tenant_id", tenantID)
	return nil
}

// ReplaceChunks swaps all chunks of a document inside one transaction, so
// concurrent retrieval sees the old chunk set or the new one, never a
// partial state.
func (s *PostgresStore) ReplaceChunks(ctx context.Context, documentID string, chunks []Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin chunk replacement: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("failed to delete existing chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range chunks {
		chunk := &chunks[i]
		if chunk.ID == "" {
			chunk.ID = uuid.NewString()
		}
		if err := ValidateEmbedding(chunk.Embedding); err != nil {
			return fmt.Errorf("chunk %d: %w", chunk.ChunkIndex, err)
		}

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}

		batch.Queue(`
			INSERT INTO chunks (id, document_id, content, embedding, chunk_index, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			chunk.ID, documentID, chunk.Content,
			pgvector.NewVector(chunk.Embedding), chunk.ChunkIndex, metadataJSON,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk replacement: %w", err)
	}

	s.logger.Debug("replaced chunks", "document_id", documentID, "count", len(chunks))
	return nil
}

// SearchChunks runs a tenant-scoped cosine similarity search.
func (s *PostgresStore) SearchChunks(ctx context.Context, tenantID string, query []float32, threshold float32, topK int) ([]MatchedChunk, error) {
	if err := ValidateEmbedding(query); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	rows, err := s.pool.Query(queryCtx, `
		SELECT c.id, c.document_id, c.content, c.chunk_index, c.metadata,
		       1 - (c.embedding <=> $2) AS similarity
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.tenant_id = $1
		  AND 1 - (c.embedding <=> $2) >= $3
		ORDER BY c.embedding <=> $2
		LIMIT $4`,
		tenantID, pgvector.NewVector(query), threshold, topK,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var matches []MatchedChunk
	for rows.Next() {
		var (
			m            MatchedChunk
			metadataJSON []byte
		)
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Content, &m.ChunkIndex, &metadataJSON, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
			s.logger.Warn("failed to parse chunk metadata", "chunk_id", m.ID, "error", err)
			m.Metadata = make(map[string]string)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// scanDocument reads one document row from either QueryRow or Query results.
func scanDocument(row pgx.Row) (*Document, error) {
	var (
		doc        Document
		sourceType string
		status     string
	)
	err := row.Scan(&doc.ID, &doc.TenantID, &doc.Name, &sourceType, &doc.Content,
		&doc.SourceURL, &status, &doc.ErrorMessage, &doc.Category,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	doc.SourceType = SourceType(sourceType)
	doc.Status = DocumentStatus(status)
	return &doc, nil
}
