package api

import (
	"errors"
	"net/http"

	"github.com/arlo-ai/arlo/internal/chat"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/session"
)

// maxMessageLength bounds one visitor message.
const maxMessageLength = 4000

// ChatHandler serves the chat endpoint.
type ChatHandler struct {
	chat        *chat.Service
	transcripts session.TranscriptStore
	logger      log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc *chat.Service, transcripts session.TranscriptStore, logger log.Logger) *ChatHandler {
	return &ChatHandler{chat: svc, transcripts: transcripts, logger: logger}
}

// RegisterRoutes registers chat routes on the mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.answer)
	mux.HandleFunc("POST /api/sessions", h.createSession)
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string                      `json:"session_id"`
	Text      string                      `json:"text"`
	Sources   []knowledge.SourceReference `json:"sources,omitempty"`
}

// answer runs the query pipeline for one message. A missing session id
// starts a new session; both turns are appended to the transcript after
// the answer is produced.
func (h *ChatHandler) answer(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if len(req.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message_too_long", "message exceeds the allowed length")
		return
	}

	ctx := r.Context()
	sessionID := req.SessionID
	if sessionID != "" {
		if _, err := h.transcripts.GetSession(ctx, tenant, sessionID); err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				writeError(w, http.StatusNotFound, "session_not_found", "unknown session for this tenant")
				return
			}
			h.logger.Error("failed to load session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "failed to load session")
			return
		}
	} else {
		sess := &session.Session{TenantID: tenant}
		if err := h.transcripts.CreateSession(ctx, sess); err != nil {
			h.logger.Error("failed to create session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "failed to create session")
			return
		}
		sessionID = sess.ID
	}

	answer, err := h.chat.Answer(ctx, chat.Request{
		TenantID:  tenant,
		SessionID: sessionID,
		Message:   req.Message,
	})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "missing_message", "message is required")
			return
		}
		h.logger.Error("chat pipeline failed", "tenant_id", tenant, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to answer")
		return
	}

	// Transcript writes happen after answering; a failed write loses
	// continuity for the next turn but never the current answer.
	h.appendTurn(r, sessionID, session.RoleUser, req.Message)
	h.appendTurn(r, sessionID, session.RoleAssistant, answer.Text)

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sessionID,
		Text:      answer.Text,
		Sources:   answer.Sources,
	})
}

func (h *ChatHandler) appendTurn(r *http.Request, sessionID, role, content string) {
	err := h.transcripts.AppendTurn(r.Context(), &session.ConversationTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		h.logger.Warn("failed to append transcript turn", "session_id", sessionID, "role", role, "error", err)
	}
}

func (h *ChatHandler) createSession(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	sess := &session.Session{TenantID: tenant}
	if err := h.transcripts.CreateSession(r.Context(), sess); err != nil {
		h.logger.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}
