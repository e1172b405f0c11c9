package model

import (
	"time"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusConversing ConversationStatus = "CONVERSING"
	StatusPaused     ConversationStatus = "PAUSED"
	StatusEnded      ConversationStatus = "ENDED"
)

// FeedbackType classifies operator feedback.
type FeedbackType string

const (
	FeedbackLike    FeedbackType = "LIKE"
	FeedbackDislike FeedbackType = "DISLIKE"
)

// Feedback is a thumbs-up/down plus free text, attachable to a message or to a
// whole conversation.
type Feedback struct {
	Type FeedbackType `json:"type"`
	Text string       `json:"text,omitempty"`
}

// Conversation is one bounded dialogue session between a contact and the
// system. Invariant: Status == ENDED implies AIActive == false.
type Conversation struct {
	ID              string             `json:"id"`
	ContactID       string             `json:"contact_id"`
	TenantID        string             `json:"tenant_id"`
	Status          ConversationStatus `json:"status"`
	AIActive        bool               `json:"ia_active"`
	LastMessageAt   time.Time          `json:"last_message_at"`
	OverallFeedback *Feedback          `json:"overall_feedback,omitempty"`
}

// Ended reports whether the conversation has reached its terminal state.
func (c *Conversation) Ended() bool {
	return c.Status == StatusEnded
}

// CanToggleAI reports whether the AI responder may still be toggled.
func (c *Conversation) CanToggleAI() bool {
	return c.Status != StatusEnded
}

// ConversationFilter narrows a conversation listing.
type ConversationFilter struct {
	Status ConversationStatus `json:"status,omitempty"`
}

// ConversationPatch is a partial update applied to a conversation row. End of
// conversation sets Status and AIActive in the same patch so the store sees a
// single write.
type ConversationPatch struct {
	Status          *ConversationStatus `json:"status,omitempty"`
	AIActive        *bool               `json:"ia_active,omitempty"`
	LastMessageAt   *time.Time          `json:"last_message_at,omitempty"`
	OverallFeedback *Feedback           `json:"overall_feedback,omitempty"`
}
