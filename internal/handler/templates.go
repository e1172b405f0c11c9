package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atendai/livechat-console/internal/middleware"
	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/pkg/logger"
)

// TemplateHandler serves quick-reply templates and the one-action "send
// template" shortcut.
type TemplateHandler struct {
	store   store.Store
	manager *session.Manager
	logger  *logger.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(st store.Store, manager *session.Manager, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		store:   st,
		manager: manager,
		logger:  log,
	}
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	templates, err := h.store.ListTemplates(ctx, tenantID)
	if err != nil {
		h.logger.Error("failed to list templates")
		writeError(w, http.StatusBadGateway, "failed to list templates")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"total":     len(templates),
	})
}

// Use handles POST /api/v1/templates/{id}/use — sends the template content
// as the operator's message in the active conversation.
func (h *TemplateHandler) Use(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(templateID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := resolveSession(h.manager, r)
	if err := s.UseTemplate(r.Context(), templateID); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}
