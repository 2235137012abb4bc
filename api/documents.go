package api

import (
	"errors"
	"net/http"

	"github.com/arlo-ai/arlo/internal/ingest"
	"github.com/arlo-ai/arlo/internal/knowledge"
	"github.com/arlo-ai/arlo/internal/log"
)

// DocumentHandler serves the knowledge base CRUD endpoints.
type DocumentHandler struct {
	pipeline *ingest.Pipeline
	store    knowledge.DocumentStore
	logger   log.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(pipeline *ingest.Pipeline, store knowledge.DocumentStore, logger log.Logger) *DocumentHandler {
	return &DocumentHandler{pipeline: pipeline, store: store, logger: logger}
}

// RegisterRoutes registers document routes on the mux.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.create)
	mux.HandleFunc("GET /api/documents", h.list)
	mux.HandleFunc("GET /api/documents/{id}", h.get)
	mux.HandleFunc("DELETE /api/documents/{id}", h.remove)
	mux.HandleFunc("POST /api/documents/{id}/reprocess", h.reprocess)
}

type createDocumentRequest struct {
	Name       string `json:"name"`
	SourceType string `json:"source_type"`
	Content    string `json:"content,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Category   string `json:"category,omitempty"`
}

// create stores a new document and queues ingestion in the background.
// The document comes back immediately in the queued state; its status
// reflects ingestion progress.
func (h *DocumentHandler) create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var req createDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	sourceType := knowledge.SourceType(req.SourceType)
	switch sourceType {
	case knowledge.SourceText, knowledge.SourceFile:
		if req.Content == "" {
			writeError(w, http.StatusBadRequest, "missing_content", "content is required for this source type")
			return
		}
	case knowledge.SourceURL:
		if req.SourceURL == "" {
			writeError(w, http.StatusBadRequest, "missing_source_url", "source_url is required for url documents")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid_source_type", "source_type must be text, url or file")
		return
	}

	doc, err := h.pipeline.Create(r.Context(), ingest.CreateParams{
		TenantID:   tenant,
		Name:       req.Name,
		SourceType: sourceType,
		Content:    req.Content,
		SourceURL:  req.SourceURL,
		Category:   req.Category,
	})
	if err != nil {
		h.logger.Error("failed to create document", "tenant_id", tenant, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to create document")
		return
	}

	h.pipeline.Submit(r.Context(), tenant, doc.ID)
	writeJSON(w, http.StatusAccepted, doc)
}

func (h *DocumentHandler) list(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	docs, err := h.store.ListDocuments(r.Context(), tenant)
	if err != nil {
		h.logger.Error("failed to list documents", "tenant_id", tenant, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (h *DocumentHandler) get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	doc, err := h.store.GetDocument(r.Context(), tenant, r.PathValue("id"))
	if err != nil {
		h.documentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) remove(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(r.Context(), tenant, r.PathValue("id")); err != nil {
		h.documentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reprocess queues another ingestion run for an existing document.
func (h *DocumentHandler) reprocess(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	doc, err := h.store.GetDocument(r.Context(), tenant, id)
	if err != nil {
		h.documentError(w, err)
		return
	}
	if !doc.Status.CanTransitionTo(knowledge.StatusProcessing) {
		writeError(w, http.StatusConflict, "already_processing", "the document is already being processed")
		return
	}

	h.pipeline.Submit(r.Context(), tenant, id)
	writeJSON(w, http.StatusAccepted, doc)
}

func (h *DocumentHandler) documentError(w http.ResponseWriter, err error) {
	if errors.Is(err, knowledge.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "document_not_found", "no such document for this tenant")
		return
	}
	h.logger.Error("document store error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "document operation failed")
}
