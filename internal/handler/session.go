// Package handler provides HTTP handlers for the console API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atendai/livechat-console/internal/middleware"
	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/pkg/logger"
)

// SessionHandler exposes one operator's live chat session over HTTP. Every
// endpoint resolves the session from the authenticated tenant and operator,
// creating it on first use.
type SessionHandler struct {
	manager *session.Manager
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *session.Manager, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		logger:  log,
	}
}

// resolveSession returns the caller's session, creating it on first use.
func resolveSession(m *session.Manager, r *http.Request) *session.Session {
	ctx := r.Context()
	return m.Get(middleware.GetTenantID(ctx), middleware.GetOperatorID(ctx))
}

func (h *SessionHandler) sessionFor(r *http.Request) *session.Session {
	return resolveSession(h.manager, r)
}

// State handles GET /api/v1/session/state
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionFor(r).Snapshot())
}

// Release handles DELETE /api/v1/session
func (h *SessionHandler) Release(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.manager.Release(middleware.GetTenantID(ctx), middleware.GetOperatorID(ctx))
	w.WriteHeader(http.StatusNoContent)
}

// SelectContact handles POST /api/v1/session/contact/{id}
func (h *SessionHandler) SelectContact(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(contactID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	if err := s.SelectContact(r.Context(), contactID); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SelectConversation handles POST /api/v1/session/conversation/{id}
func (h *SessionHandler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	if err := s.SelectConversation(r.Context(), conversationID); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /api/v1/session/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	if err := s.SendMessage(r.Context(), req.Content); err != nil {
		// The draft goes back with the error so the UI can restore the
		// input field for a manual retry.
		w.Header().Set("Content-Type", "application/json")
		status := http.StatusBadGateway
		writeJSON(w, status, map[string]string{
			"error": err.Error(),
			"draft": req.Content,
		})
		return
	}
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// ToggleAI handles POST /api/v1/session/ai/toggle
func (h *SessionHandler) ToggleAI(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFor(r)
	if err := s.ToggleAI(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// EndConversation handles POST /api/v1/session/end
func (h *SessionHandler) EndConversation(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFor(r)
	if err := s.EndConversation(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// MessageFeedback handles POST /api/v1/session/messages/{id}/feedback
func (h *SessionHandler) MessageFeedback(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fb model.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateFeedback(fb); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	if err := s.SetMessageFeedback(r.Context(), messageID, fb); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// ConversationFeedback handles POST /api/v1/session/feedback
func (h *SessionHandler) ConversationFeedback(w http.ResponseWriter, r *http.Request) {
	var fb model.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateFeedback(fb); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	if err := s.SetConversationFeedback(r.Context(), fb); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /api/v1/session/search
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateSearchQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.sessionFor(r)
	s.Search(req.Query)
	writeJSON(w, http.StatusOK, s.Snapshot().Search)
}

// ClearSearch handles DELETE /api/v1/session/search
func (h *SessionHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	h.sessionFor(r).ClearSearch()
	w.WriteHeader(http.StatusNoContent)
}

// NextMatch handles POST /api/v1/session/search/next
func (h *SessionHandler) NextMatch(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFor(r)
	s.NextMatch()
	writeJSON(w, http.StatusOK, s.Snapshot().Search)
}

// PreviousMatch handles POST /api/v1/session/search/previous
func (h *SessionHandler) PreviousMatch(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFor(r)
	s.PreviousMatch()
	writeJSON(w, http.StatusOK, s.Snapshot().Search)
}

type scrollRequest struct {
	DistanceFromBottom float64 `json:"distance_from_bottom"`
}

// ReportScroll handles POST /api/v1/session/scroll
func (h *SessionHandler) ReportScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := h.sessionFor(r)
	s.ReportScroll(req.DistanceFromBottom)
	writeJSON(w, http.StatusOK, s.Snapshot().Attention)
}

// ScrollToLatest handles POST /api/v1/session/scroll/latest
func (h *SessionHandler) ScrollToLatest(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFor(r)
	s.ScrollToLatest()
	writeJSON(w, http.StatusOK, s.Snapshot().Attention)
}
