package model

import (
	"encoding/json"
)

// RowOp is the kind of row-level change carried by a realtime event.
type RowOp string

const (
	OpInsert RowOp = "insert"
	OpUpdate RowOp = "update"
)

// Table names used by the store and the realtime channel.
const (
	TableContacts      = "contacts"
	TableConversations = "conversations"
	TableMessages      = "messages"
)

// RowEvent is a row-level change notification pushed by the realtime channel.
// Data holds the full row as JSON; the subscriber decodes it into the model
// type matching Table.
type RowEvent struct {
	Table string          `json:"table"`
	Op    RowOp           `json:"op"`
	Data  json.RawMessage `json:"data"`
}

// DecodeMessage decodes the event payload as a message row.
func (e RowEvent) DecodeMessage() (Message, error) {
	var m Message
	err := json.Unmarshal(e.Data, &m)
	return m, err
}

// DecodeConversation decodes the event payload as a conversation row.
func (e RowEvent) DecodeConversation() (Conversation, error) {
	var c Conversation
	err := json.Unmarshal(e.Data, &c)
	return c, err
}
