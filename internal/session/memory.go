package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arlo-ai/arlo/internal/persona"
)

// MemoryStore is an in-memory TranscriptStore and persona.Store used by
// tests and hermetic development runs.
//
// MemoryStore is safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session           // session ID -> session
	turns    map[string][]ConversationTurn // session ID -> ordered turns
	personas map[string]*persona.Config    // tenant ID -> persona
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		turns:    make(map[string][]ConversationTurn),
		personas: make(map[string]*persona.Config),
	}
}

// CreateSession stores a copy of s.
func (m *MemoryStore) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	stored := *s
	m.sessions[s.ID] = &stored
	return nil
}

// GetSession returns a copy of the session, tenant-scoped.
func (m *MemoryStore) GetSession(_ context.Context, tenantID, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.TenantID != tenantID {
		return nil, ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

// AppendTurn appends a copy of turn to its session's transcript.
func (m *MemoryStore) AppendTurn(_ context.Context, turn *ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	turn.CreatedAt = time.Now()

	m.turns[turn.SessionID] = append(m.turns[turn.SessionID], *turn)
	if s, ok := m.sessions[turn.SessionID]; ok {
		s.UpdatedAt = turn.CreatedAt
	}
	return nil
}

// LastTurns returns up to n most recent turns, oldest first.
func (m *MemoryStore) LastTurns(_ context.Context, sessionID string, n int) ([]ConversationTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.turns[sessionID]
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// GetPersona returns a copy of the tenant's persona.
func (m *MemoryStore) GetPersona(_ context.Context, tenantID string) (*persona.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.personas[tenantID]
	if !ok {
		return nil, persona.ErrPersonaNotFound
	}
	out := *cfg
	return &out, nil
}

// SavePersona stores a copy of cfg keyed by tenant.
func (m *MemoryStore) SavePersona(_ context.Context, cfg *persona.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *cfg
	m.personas[cfg.TenantID] = &stored
	return nil
}
