package session

import (
	"errors"
)

var (
	// ErrNoConversation is returned by actions that require a loaded
	// conversation when none is selected.
	ErrNoConversation = errors.New("no conversation selected")

	// ErrConversationEnded is returned when an action is attempted on a
	// conversation in its terminal state.
	ErrConversationEnded = errors.New("conversation has ended")

	// ErrEmptyMessage is returned when a draft has no content.
	ErrEmptyMessage = errors.New("message content cannot be empty")

	// ErrWrongConversation is returned when a mutation targets a
	// conversation other than the loaded one.
	ErrWrongConversation = errors.New("conversation is not loaded")

	// ErrStaleSelection is returned when an async load completes after the
	// operator has already moved to another selection.
	ErrStaleSelection = errors.New("selection changed during load")

	// ErrNotFound is returned when a selected row no longer exists.
	ErrNotFound = errors.New("selection no longer exists")
)
