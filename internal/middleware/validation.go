package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/atendai/livechat-console/internal/model"
)

// ValidateMessageContent validates message content before any optimistic
// mutation is applied.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateID validates a row id.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid id format")
	}
	return nil
}

// ValidateFeedback validates a feedback payload.
func ValidateFeedback(fb model.Feedback) error {
	if fb.Type != model.FeedbackLike && fb.Type != model.FeedbackDislike {
		return errors.New("feedback type must be LIKE or DISLIKE")
	}
	if len(fb.Text) > 2000 {
		return errors.New("feedback text exceeds maximum length")
	}
	if !utf8.ValidString(fb.Text) {
		return errors.New("feedback text must be valid UTF-8")
	}
	return nil
}

// ValidateSearchQuery validates a search query.
func ValidateSearchQuery(query string) error {
	if len(query) == 0 {
		return errors.New("query cannot be empty")
	}
	if len(query) > 256 {
		return errors.New("query exceeds maximum length")
	}
	if !utf8.ValidString(query) {
		return errors.New("query must be valid UTF-8")
	}
	return nil
}
