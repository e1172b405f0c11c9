package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/atendai/livechat-console/internal/model"
)

func TestValidateMessageContent(t *testing.T) {
	assert.NoError(t, ValidateMessageContent("olá, tudo bem?"))
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", 100001)))
	assert.Error(t, ValidateMessageContent("\xff\xfe"))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID(uuid.New().String()))
	assert.Error(t, ValidateID("not-a-uuid"))
	assert.Error(t, ValidateID(""))
}

func TestValidateFeedback(t *testing.T) {
	assert.NoError(t, ValidateFeedback(model.Feedback{Type: model.FeedbackLike}))
	assert.NoError(t, ValidateFeedback(model.Feedback{Type: model.FeedbackDislike, Text: "não resolveu"}))
	assert.Error(t, ValidateFeedback(model.Feedback{Type: "MEH"}))
	assert.Error(t, ValidateFeedback(model.Feedback{
		Type: model.FeedbackLike,
		Text: strings.Repeat("x", 2001),
	}))
}

func TestValidateSearchQuery(t *testing.T) {
	assert.NoError(t, ValidateSearchQuery("erro"))
	assert.Error(t, ValidateSearchQuery(""))
	assert.Error(t, ValidateSearchQuery(strings.Repeat("q", 257)))
}
