package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atendai/livechat-console/internal/session"
	"github.com/atendai/livechat-console/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeActionError maps core errors onto HTTP statuses. Validation and
// invalid-transition errors are the caller's fault; store failures surface
// as bad gateway so the operator knows a retry is theirs to issue.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrConversationEnded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrWrongConversation),
		errors.Is(err, session.ErrNoConversation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrStaleSelection):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
