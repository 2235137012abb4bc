// Package session stores chat sessions, their transcripts and tenant
// persona configuration.
//
// The query-time pipeline only reads the last N turns of a transcript;
// writes happen at the HTTP layer after each exchange. Postgres backs
// production; an in-memory twin backs tests and hermetic dev runs.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound indicates the session id does not exist for the tenant.
var ErrSessionNotFound = errors.New("session not found")

// Conversation roles as persisted in transcripts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is one visitor conversation with a tenant's agent.
type Session struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationTurn is one message in a session transcript.
type ConversationTurn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptStore persists sessions and their turns.
type TranscriptStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, tenantID, sessionID string) (*Session, error)
	AppendTurn(ctx context.Context, turn *ConversationTurn) error

	// LastTurns returns up to n most recent turns in oldest-to-newest order.
	LastTurns(ctx context.Context, sessionID string, n int) ([]ConversationTurn, error)
}
