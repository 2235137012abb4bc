package api

import (
	"errors"
	"net/http"

	"github.com/arlo-ai/arlo/internal/log"
	"github.com/arlo-ai/arlo/internal/persona"
)

// PersonaHandler serves the tenant persona endpoints.
type PersonaHandler struct {
	store  persona.Store
	logger log.Logger
}

// NewPersonaHandler creates a persona handler.
func NewPersonaHandler(store persona.Store, logger log.Logger) *PersonaHandler {
	return &PersonaHandler{store: store, logger: logger}
}

// RegisterRoutes registers persona routes on the mux.
func (h *PersonaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/persona", h.get)
	mux.HandleFunc("PUT /api/persona", h.save)
}

func (h *PersonaHandler) get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	cfg, err := h.store.GetPersona(r.Context(), tenant)
	if err != nil {
		if errors.Is(err, persona.ErrPersonaNotFound) {
			writeError(w, http.StatusNotFound, "persona_not_found", "no persona configured for this tenant")
			return
		}
		h.logger.Error("failed to load persona", "tenant_id", tenant, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to load persona")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// save upserts the persona. Defaults for unset fields are resolved on read,
// so the stored value is exactly what the tenant sent.
func (h *PersonaHandler) save(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(w, r)
	if !ok {
		return
	}

	var cfg persona.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	cfg.TenantID = tenant

	if err := h.store.SavePersona(r.Context(), &cfg); err != nil {
		h.logger.Error("failed to save persona", "tenant_id", tenant, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to save persona")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
