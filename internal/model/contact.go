// Package model defines data structures shared across the live chat console.
package model

import (
	"time"
)

// ContactStatus is the rolled-up handling state of a contact.
type ContactStatus string

const (
	ContactWithAI ContactStatus = "WITH_AI"
	ContactPaused ContactStatus = "PAUSED"
	ContactOpen   ContactStatus = "OPEN"
	ContactClosed ContactStatus = "CLOSED"
)

// Contact is a customer identity owned by a tenant. Contacts are created by
// inbound-channel ingestion and are never deleted by the console.
type Contact struct {
	ID                string        `json:"id"`
	TenantID          string        `json:"tenant_id"`
	Name              string        `json:"name"`
	Phone             string        `json:"phone,omitempty"`
	Email             string        `json:"email,omitempty"`
	Address           string        `json:"address,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	Status            ContactStatus `json:"status"`
	LastInteractionAt time.Time     `json:"last_interaction_at"`
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	Search      string `json:"search,omitempty"`
	SearchField string `json:"search_field,omitempty"`
}

// ContactPatch is a partial update applied to a contact row.
type ContactPatch struct {
	Name              *string        `json:"name,omitempty"`
	Phone             *string        `json:"phone,omitempty"`
	Email             *string        `json:"email,omitempty"`
	Address           *string        `json:"address,omitempty"`
	Tags              *[]string      `json:"tags,omitempty"`
	Status            *ContactStatus `json:"status,omitempty"`
	LastInteractionAt *time.Time     `json:"last_interaction_at,omitempty"`
}
