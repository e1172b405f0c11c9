package model

import (
	"time"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderCustomer Sender = "CUSTOMER"
	SenderAI       Sender = "IA"
	SenderAgent    Sender = "ATENDENTE"
)

// Message is an immutable event in a conversation. Content, timestamp and
// sender never change after creation; only Feedback may be attached later.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	SenderID       *string   `json:"sender_id,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	Feedback       *Feedback `json:"feedback,omitempty"`
}

// MessageDraft is the client-side shape of a message before the store has
// assigned it an id.
type MessageDraft struct {
	ConversationID string    `json:"conversation_id"`
	TenantID       string    `json:"tenant_id"`
	Sender         Sender    `json:"sender"`
	SenderID       *string   `json:"sender_id,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessagePatch is a partial update applied to a message row. Only feedback is
// mutable.
type MessagePatch struct {
	Feedback *Feedback `json:"feedback,omitempty"`
}
