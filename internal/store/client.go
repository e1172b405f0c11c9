package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/atendai/livechat-console/internal/bus"
	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/pkg/metrics"
)

const (
	// SubjectPrefix is the prefix for all data-service subjects.
	SubjectPrefix = "store"

	defaultRequestTimeout = 5 * time.Second
)

// Client talks to the data service over NATS request-reply. Requests and
// responses are JSON envelopes; the reply carries either data or an error
// string.
type Client struct {
	bus     *bus.Client
	timeout time.Duration
}

// NewClient creates a store client on an established bus connection.
func NewClient(b *bus.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{bus: b, timeout: timeout}
}

// Subject returns the request subject for an operation on a table.
func Subject(table, op string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, table, op)
}

type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (c *Client) request(ctx context.Context, subject string, req, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := c.bus.Conn().RequestWithContext(ctx, subject, payload)
	metrics.RecordStoreRequest(subject, err == nil, time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return fmt.Errorf("data service unavailable: %w", err)
		}
		return fmt.Errorf("store request %s failed: %w", subject, err)
	}

	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return fmt.Errorf("failed to decode store reply: %w", err)
	}
	if env.Error != "" {
		if env.Error == "not found" {
			return ErrNotFound
		}
		return fmt.Errorf("store error on %s: %s", subject, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode store data: %w", err)
		}
	}
	return nil
}

type listContactsRequest struct {
	TenantID string              `json:"tenant_id"`
	Filter   model.ContactFilter `json:"filter"`
}

// ListContacts retrieves contacts for a tenant, optionally filtered by a
// search term on one field.
func (c *Client) ListContacts(ctx context.Context, tenantID string, filter model.ContactFilter) ([]model.Contact, error) {
	var contacts []model.Contact
	err := c.request(ctx, Subject(model.TableContacts, "list"), listContactsRequest{
		TenantID: tenantID,
		Filter:   filter,
	}, &contacts)
	return contacts, err
}

type idRequest struct {
	ID string `json:"id"`
}

// GetContact retrieves a contact by id.
func (c *Client) GetContact(ctx context.Context, id string) (model.Contact, error) {
	var contact model.Contact
	err := c.request(ctx, Subject(model.TableContacts, "get"), idRequest{ID: id}, &contact)
	return contact, err
}

type updateContactRequest struct {
	ID    string             `json:"id"`
	Patch model.ContactPatch `json:"patch"`
}

// UpdateContact applies a partial update to a contact row.
func (c *Client) UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error) {
	var contact model.Contact
	err := c.request(ctx, Subject(model.TableContacts, "update"), updateContactRequest{
		ID:    id,
		Patch: patch,
	}, &contact)
	return contact, err
}

type listConversationsRequest struct {
	ContactID string                   `json:"contact_id"`
	TenantID  string                   `json:"tenant_id"`
	Filter    model.ConversationFilter `json:"filter"`
}

// ListConversations retrieves a contact's conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, contactID, tenantID string, filter model.ConversationFilter) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := c.request(ctx, Subject(model.TableConversations, "list"), listConversationsRequest{
		ContactID: contactID,
		TenantID:  tenantID,
		Filter:    filter,
	}, &conversations)
	return conversations, err
}

type updateConversationRequest struct {
	ID    string                  `json:"id"`
	Patch model.ConversationPatch `json:"patch"`
}

// UpdateConversation applies a partial update to a conversation row. A patch
// is one request, so ending a conversation flips status and AI flag in a
// single store write.
func (c *Client) UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (model.Conversation, error) {
	var conversation model.Conversation
	err := c.request(ctx, Subject(model.TableConversations, "update"), updateConversationRequest{
		ID:    id,
		Patch: patch,
	}, &conversation)
	return conversation, err
}

type listMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
}

// ListMessages retrieves a conversation's messages sorted ascending by
// creation time.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var messages []model.Message
	err := c.request(ctx, Subject(model.TableMessages, "list"), listMessagesRequest{
		ConversationID: conversationID,
	}, &messages)
	return messages, err
}

// CreateMessage inserts a message row and returns the authoritative record
// with the store-assigned id and timestamp.
func (c *Client) CreateMessage(ctx context.Context, draft model.MessageDraft) (model.Message, error) {
	var message model.Message
	err := c.request(ctx, Subject(model.TableMessages, "create"), draft, &message)
	return message, err
}

type updateMessageRequest struct {
	ID    string             `json:"id"`
	Patch model.MessagePatch `json:"patch"`
}

// UpdateMessage applies a partial update to a message row. Only feedback is
// patchable.
func (c *Client) UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (model.Message, error) {
	var message model.Message
	err := c.request(ctx, Subject(model.TableMessages, "update"), updateMessageRequest{
		ID:    id,
		Patch: patch,
	}, &message)
	return message, err
}

type listTemplatesRequest struct {
	TenantID string `json:"tenant_id"`
}

// ListTemplates retrieves the tenant's quick-reply templates.
func (c *Client) ListTemplates(ctx context.Context, tenantID string) ([]model.Template, error) {
	var templates []model.Template
	err := c.request(ctx, Subject("templates", "list"), listTemplatesRequest{TenantID: tenantID}, &templates)
	return templates, err
}

// IncrementTemplateUsage bumps a template's usage counter.
func (c *Client) IncrementTemplateUsage(ctx context.Context, id string) error {
	return c.request(ctx, Subject("templates", "use"), idRequest{ID: id}, nil)
}
