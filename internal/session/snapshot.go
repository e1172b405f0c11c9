package session

import (
	"github.com/atendai/livechat-console/internal/model"
)

// MessageView is one rendered message: the record plus its confirmation
// state. Pending entries expose their local id so the UI can key them stably
// until the store id arrives.
type MessageView struct {
	model.Message
	Pending bool   `json:"pending,omitempty"`
	LocalID string `json:"local_id,omitempty"`
}

// AttentionView is the consumer-facing attention state.
type AttentionView struct {
	State  AttentionState `json:"state"`
	Unread int            `json:"unread"`
}

// Snapshot is the full observable output of a session, derived from the
// canonical cache on demand so search highlights and attention always refer
// to the reconciled list, never a stale parallel copy.
type Snapshot struct {
	Contact       *model.Contact       `json:"contact,omitempty"`
	Conversation  *model.Conversation  `json:"conversation,omitempty"`
	Conversations []model.Conversation `json:"conversations,omitempty"`
	Messages      []MessageView        `json:"messages"`
	Search        SearchMeta           `json:"search"`
	Attention     AttentionView        `json:"attention"`
	Pending       map[string]bool      `json:"pending,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	Version       uint64               `json:"version"`
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	entries := s.cache.Messages()
	messages := make([]MessageView, len(entries))
	for i, e := range entries {
		messages[i] = MessageView{Message: e.Message, Pending: e.Pending, LocalID: e.LocalID}
	}

	s.mu.Lock()
	matches := computeMatches(entries, s.query)
	search := searchMeta(s.query, matches, s.matchPos)
	attention := AttentionView{State: s.attention.State(), Unread: s.attention.Unread()}
	conversations := make([]model.Conversation, len(s.conversations))
	copy(conversations, s.conversations)
	pending := make(map[string]bool, len(s.pending))
	for k, v := range s.pending {
		pending[k] = v
	}
	lastError := s.lastError
	s.mu.Unlock()

	return Snapshot{
		Contact:       s.cache.Contact(),
		Conversation:  s.cache.Conversation(),
		Conversations: conversations,
		Messages:      messages,
		Search:        search,
		Attention:     attention,
		Pending:       pending,
		LastError:     lastError,
		Version:       s.cache.Version(),
	}
}
