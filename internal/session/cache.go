// Package session implements the live chat synchronization core: the
// optimistic mutation cache, the conversation lifecycle controller, the
// message search index and the scroll attention tracker, orchestrated by a
// per-operator Session.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// Scope identifies which cached data an invalidation targets.
type Scope int

const (
	ScopeContacts Scope = iota
	ScopeConversations
	ScopeMessages
)

// Entry is one element of the cached message list. While Pending is true the
// message has not been confirmed by the store and LocalID identifies it;
// once confirmed the store-assigned Message.ID is authoritative.
type Entry struct {
	Message model.Message
	Pending bool
	LocalID string
}

// Cache is the single source of truth for the records currently displayed:
// the selected contact, the selected conversation and its message list. It
// applies speculative local edits immediately and reconciles them against
// store confirmations and realtime pushes so the operator never sees a
// mutation vanish or duplicate.
//
// Every operation is atomic under the cache mutex; callers never observe a
// partially applied mutation.
type Cache struct {
	mu           sync.Mutex
	contact      *model.Contact
	conversation *model.Conversation
	entries      []Entry
	stale        map[Scope]bool
	version      uint64
	updates      chan struct{}
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		stale:   make(map[Scope]bool),
		updates: make(chan struct{}, 1),
	}
}

// bump records a mutation and notifies listeners. Called with mu held.
func (c *Cache) bump() {
	c.version++
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Updates returns a coalescing notification channel that receives after
// every cache mutation.
func (c *Cache) Updates() <-chan struct{} {
	return c.updates
}

// Version returns the mutation counter. Derived state (search matches,
// attention) is recomputed whenever it advances.
func (c *Cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Load installs a freshly read selection, discarding any previous entries
// including unconfirmed ones from an earlier selection.
func (c *Cache) Load(contact model.Contact, conversation *model.Conversation, messages []model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.contact = &contact
	c.conversation = conversation
	c.entries = make([]Entry, len(messages))
	for i, m := range messages {
		c.entries[i] = Entry{Message: m}
	}
	c.stale = make(map[Scope]bool)
	c.bump()
}

// ApplyOptimistic inserts a transient message into the cached list without
// waiting for the store. The draft must carry non-empty content and target
// the loaded conversation. Returns the local id used to confirm or roll the
// entry back.
func (c *Cache) ApplyOptimistic(conversationID string, draft model.MessageDraft) (string, error) {
	if draft.Content == "" {
		return "", ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conversation == nil || c.conversation.ID != conversationID {
		return "", ErrWrongConversation
	}

	// Tail append, not sorted insert: the local clock may lag the last
	// message, but the operator's own send always renders last until the
	// store-assigned timestamp arrives with the confirmation.
	localID := uuid.New().String()
	c.entries = append(c.entries, Entry{
		Message: model.Message{
			ConversationID: draft.ConversationID,
			Sender:         draft.Sender,
			SenderID:       draft.SenderID,
			Content:        draft.Content,
			CreatedAt:      draft.CreatedAt,
		},
		Pending: true,
		LocalID: localID,
	})
	c.bump()
	return localID, nil
}

// Confirm replaces the transient entry identified by localID with the
// authoritative store record, preserving its position in the list. If the
// entry is gone, because a realtime push already reconciled it, the
// confirmation is a no-op.
func (c *Cache) Confirm(localID string, server model.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].Pending && c.entries[i].LocalID == localID {
			c.entries[i] = Entry{Message: server}
			metrics.ReconciliationsTotal.WithLabelValues("confirm").Inc()
			c.bump()
			return true
		}
	}
	return false
}

// Rollback removes the transient entry identified by localID, restoring the
// list to its state before ApplyOptimistic.
func (c *Cache) Rollback(localID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].Pending && c.entries[i].LocalID == localID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			metrics.RollbacksTotal.Inc()
			c.bump()
			return true
		}
	}
	return false
}

// MergeResult says what MergeRealtimeInsert did with a pushed row.
type MergeResult int

const (
	// MergeDuplicate means the row id was already cached and the push was
	// dropped.
	MergeDuplicate MergeResult = iota
	// MergeEcho means the push confirmed an unconfirmed optimistic entry.
	MergeEcho
	// MergeInserted means the row was new and entered the list at its
	// sorted position.
	MergeInserted
)

// MergeRealtimeInsert folds a pushed message row into the cached list.
// A row whose id is already present is a duplicate push and is dropped. A
// row matching an unconfirmed optimistic entry on conversation, sender and
// content is treated as that entry's confirmation and replaces it in place
// rather than duplicating it. Anything else is inserted at its position in
// timestamp order.
func (c *Cache) MergeRealtimeInsert(record model.Message) MergeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if !c.entries[i].Pending && c.entries[i].Message.ID == record.ID {
			metrics.ReconciliationsTotal.WithLabelValues("duplicate").Inc()
			return MergeDuplicate
		}
	}

	for i := range c.entries {
		e := &c.entries[i]
		if e.Pending &&
			e.Message.ConversationID == record.ConversationID &&
			e.Message.Sender == record.Sender &&
			e.Message.Content == record.Content {
			*e = Entry{Message: record}
			metrics.ReconciliationsTotal.WithLabelValues("echo").Inc()
			c.bump()
			return MergeEcho
		}
	}

	c.insertSorted(Entry{Message: record})
	metrics.ReconciliationsTotal.WithLabelValues("insert").Inc()
	c.bump()
	return MergeInserted
}

// MergeRealtimeUpdate replaces the row matching the pushed record's id in
// place. An update for an absent row is stale and dropped.
func (c *Cache) MergeRealtimeUpdate(record model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if !c.entries[i].Pending && c.entries[i].Message.ID == record.ID {
			c.entries[i].Message = record
			c.bump()
			return
		}
	}
}

// ReconcileMessages replaces the confirmed portion of the list with a fresh
// store read, used as the correctness backstop after mutations and when a
// realtime gap is suspected. Unconfirmed optimistic entries survive unless
// the fresh read already contains their row, in which case the read wins.
func (c *Cache) ReconcileMessages(conversationID string, messages []model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conversation == nil || c.conversation.ID != conversationID {
		return
	}

	next := make([]Entry, len(messages))
	for i, m := range messages {
		next[i] = Entry{Message: m}
	}

	for _, e := range c.entries {
		if !e.Pending {
			continue
		}
		matched := false
		for _, m := range messages {
			if m.ConversationID == e.Message.ConversationID &&
				m.Sender == e.Message.Sender &&
				m.Content == e.Message.Content {
				matched = true
				break
			}
		}
		if !matched {
			next = insertEntrySorted(next, e)
		}
	}

	c.entries = next
	c.stale[ScopeMessages] = false
	c.bump()
}

// Invalidate marks a scope stale; the session re-reads it from the store on
// the next refresh.
func (c *Cache) Invalidate(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[scope] = true
	c.bump()
}

// Stale reports whether a scope has been invalidated since its last load.
func (c *Cache) Stale(scope Scope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[scope]
}

// Contact returns a copy of the cached contact, or nil when none is loaded.
func (c *Cache) Contact() *model.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contact == nil {
		return nil
	}
	contact := *c.contact
	return &contact
}

// SetContact replaces the cached contact record.
func (c *Cache) SetContact(contact model.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contact = &contact
	c.bump()
}

// Conversation returns a copy of the cached conversation, or nil when none
// is loaded.
func (c *Cache) Conversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversation == nil {
		return nil
	}
	conversation := *c.conversation
	return &conversation
}

// SetConversation replaces the cached conversation record atomically and
// returns the prior record so a failed store write can restore it.
func (c *Cache) SetConversation(conversation model.Conversation) *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior := c.conversation
	c.conversation = &conversation
	c.bump()
	return prior
}

// RestoreConversation puts back a prior record captured by SetConversation.
func (c *Cache) RestoreConversation(prior *model.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation = prior
	c.bump()
}

// Messages returns a copy of the reconciled message list.
func (c *Cache) Messages() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// insertSorted places an entry at its position in ascending timestamp
// order. Equal timestamps keep arrival order. Called with mu held.
func (c *Cache) insertSorted(e Entry) {
	c.entries = insertEntrySorted(c.entries, e)
}

func insertEntrySorted(entries []Entry, e Entry) []Entry {
	i := len(entries)
	for i > 0 && entries[i-1].Message.CreatedAt.After(e.Message.CreatedAt) {
		i--
	}
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	return entries
}
