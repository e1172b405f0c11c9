// Package store provides the client for the conversation data service. The
// service owns the contact, conversation, message and template rows; the
// console only reads and patches them through this client.
package store

import (
	"context"
	"errors"

	"github.com/atendai/livechat-console/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("row not found")

// Store is the async CRUD surface consumed by the session core. All reads
// return rows scoped to the caller's tenant; all writes are single-row
// patches, so conflicting edits resolve last-write-wins at the store.
type Store interface {
	ListContacts(ctx context.Context, tenantID string, filter model.ContactFilter) ([]model.Contact, error)
	GetContact(ctx context.Context, id string) (model.Contact, error)
	UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error)

	ListConversations(ctx context.Context, contactID, tenantID string, filter model.ConversationFilter) ([]model.Conversation, error)
	UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (model.Conversation, error)

	// ListMessages returns the conversation history sorted ascending by
	// creation time.
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	CreateMessage(ctx context.Context, draft model.MessageDraft) (model.Message, error)
	UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (model.Message, error)

	ListTemplates(ctx context.Context, tenantID string) ([]model.Template, error)
	IncrementTemplateUsage(ctx context.Context, id string) error
}
