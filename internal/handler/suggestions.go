package handler

import (
	"net/http"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/internal/suggest"
	"github.com/atendai/livechat-console/pkg/logger"
)

// SuggestionHandler drafts operator replies from the reconciled message
// list. Optional: when no LLM is configured the endpoint reports 503.
type SuggestionHandler struct {
	suggester *suggest.Suggester
	manager   *session.Manager
	logger    *logger.Logger
}

// NewSuggestionHandler creates a new suggestion handler. suggester may be
// nil when LLM features are disabled.
func NewSuggestionHandler(suggester *suggest.Suggester, manager *session.Manager, log *logger.Logger) *SuggestionHandler {
	return &SuggestionHandler{
		suggester: suggester,
		manager:   manager,
		logger:    log,
	}
}

// Suggest handles GET /api/v1/suggestions
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		writeError(w, http.StatusServiceUnavailable, "suggestions are not configured")
		return
	}

	s := resolveSession(h.manager, r)
	snapshot := s.Snapshot()
	if snapshot.Conversation == nil {
		writeError(w, http.StatusBadRequest, session.ErrNoConversation.Error())
		return
	}

	// Only confirmed messages feed the prompt; pending ones may roll back.
	messages := make([]model.Message, 0, len(snapshot.Messages))
	for _, m := range snapshot.Messages {
		if !m.Pending {
			messages = append(messages, m.Message)
		}
	}

	suggestion, err := h.suggester.Suggest(r.Context(), messages)
	if err != nil {
		h.logger.Warn("suggestion failed")
		writeError(w, http.StatusBadGateway, "failed to generate suggestion")
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}
