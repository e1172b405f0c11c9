package handler

import (
	"net/http"

	"github.com/atendai/livechat-console/internal/middleware"
	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/pkg/logger"
)

// ContactHandler serves the inbox sidebar: the tenant's contact list with
// optional field search. Contact editing screens live elsewhere; the console
// only reads.
type ContactHandler struct {
	store  store.Store
	logger *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(st store.Store, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		store:  st,
		logger: log,
	}
}

// List handles GET /api/v1/contacts?search=&search_field=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	filter := model.ContactFilter{
		Search:      r.URL.Query().Get("search"),
		SearchField: r.URL.Query().Get("search_field"),
	}

	contacts, err := h.store.ListContacts(ctx, tenantID, filter)
	if err != nil {
		h.logger.Error("failed to list contacts")
		writeError(w, http.StatusBadGateway, "failed to list contacts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"total":    len(contacts),
	})
}
