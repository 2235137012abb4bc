package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/persona"
)

// PostgresStore implements TranscriptStore and persona.Store on PostgreSQL.
//
// PostgresStore is safe for concurrent use by multiple goroutines.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	if logger == nil {
		logger = log.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// CreateSession inserts a new session. A missing ID is generated.
func (s *PostgresStore) CreateSession(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (id, tenant_id)
		VALUES ($1, $2)
		RETURNING created_at, updated_at`,
		sess.ID, sess.TenantID,
	)
	if err := row.Scan(&sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create session %q: %w", sess.ID, err)
	}

	s.logger.Debug("created session", "id", sess.ID, "tenant_id", sess.TenantID)
	return nil
}

// GetSession returns the session, tenant-scoped.
func (s *PostgresStore) GetSession(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, created_at, updated_at
		FROM sessions
		WHERE id = $1 AND tenant_id = $2`,
		sessionID, tenantID,
	)

	var sess Session
	if err := row.Scan(&sess.ID, &sess.TenantID, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %q: %w", sessionID, err)
	}
	return &sess, nil
}

// AppendTurn inserts one transcript turn and touches the session timestamp.
func (s *PostgresStore) AppendTurn(ctx context.Context, turn *ConversationTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO messages (id, session_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		turn.ID, turn.SessionID, turn.Role, turn.Content,
	)
	if err := row.Scan(&turn.CreatedAt); err != nil {
		return fmt.Errorf("failed to append turn to session %q: %w", turn.SessionID, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE sessions SET updated_at = now() WHERE id = $1`, turn.SessionID); err != nil {
		return fmt.Errorf("failed to touch session %q: %w", turn.SessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}

// LastTurns returns up to n most recent turns, oldest first.
func (s *PostgresStore) LastTurns(ctx context.Context, sessionID string, n int) ([]ConversationTurn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM (
			SELECT id, session_id, role, content, created_at
			FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns for session %q: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []ConversationTurn
	for rows.Next() {
		var t ConversationTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// GetPersona loads the tenant's persona configuration.
func (s *PostgresStore) GetPersona(ctx context.Context, tenantID string) (*persona.Config, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT tenant_id, owner_name, communication_style, personality_traits,
		       custom_instructions, external_links, access_permissions
		FROM personas
		WHERE tenant_id = $1`,
		tenantID,
	)

	var (
		cfg         persona.Config
		style       string
		links       []byte
		permissions []byte
	)
	if err := row.Scan(&cfg.TenantID, &cfg.OwnerName, &style, &cfg.Traits, &cfg.CustomInstructions, &links, &permissions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persona.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to get persona for tenant %q: %w", tenantID, err)
	}

	cfg.Style = persona.CommunicationStyle(style)
	if err := json.Unmarshal(links, &cfg.Links); err != nil {
		return nil, fmt.Errorf("failed to decode persona links: %w", err)
	}
	if err := json.Unmarshal(permissions, &cfg.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode persona permissions: %w", err)
	}
	return &cfg, nil
}

// SavePersona upserts the tenant's persona configuration.
func (s *PostgresStore) SavePersona(ctx context.Context, cfg *persona.Config) error {
	links, err := json.Marshal(cfg.Links)
	if err != nil {
		return fmt.Errorf("failed to encode persona links: %w", err)
	}
	permissions, err := json.Marshal(cfg.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode persona permissions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO personas (tenant_id, owner_name, communication_style, personality_traits, custom_instructions, external_links, access_permissions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id) DO UPDATE SET
			owner_name = EXCLUDED.owner_name,
			communication_style = EXCLUDED.communication_style,
			personality_traits = EXCLUDED.personality_traits,
			custom_instructions = EXCLUDED.custom_instructions,
			external_links = EXCLUDED.external_links,
			access_permissions = EXCLUDED.access_permissions,
			updated_at = now()`,
		cfg.TenantID, cfg.OwnerName, string(cfg.Style), cfg.Traits, cfg.CustomInstructions, links, permissions,
	)
	if err != nil {
		return fmt.Errorf("failed to save persona for tenant %q: %w", cfg.TenantID, err)
	}

	s.logger.Debug("saved persona", "tenant_id", cfg.TenantID)
	return nil
}
