package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/pkg/logger"
)

func lifecycleFixture(t *testing.T, status model.ConversationStatus, aiActive bool) (*Lifecycle, *Cache, *fakeStore) {
	t.Helper()
	c := NewCache()
	c.Load(
		model.Contact{ID: "contact-1", TenantID: "tenant-1", Name: "Maria"},
		&model.Conversation{
			ID:        "conv-1",
			ContactID: "contact-1",
			TenantID:  "tenant-1",
			Status:    status,
			AIActive:  aiActive,
		},
		nil,
	)
	fs := newFakeStore()
	fs.conversations = []model.Conversation{{
		ID:        "conv-1",
		ContactID: "contact-1",
		TenantID:  "tenant-1",
		Status:    status,
		AIActive:  aiActive,
	}}
	return NewLifecycle(c, fs, logger.NewNop()), c, fs
}

func TestToggleAIFlipsFlag(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusConversing, true)

	require.NoError(t, l.ToggleAI(context.Background()))
	require.NotNil(t, c.Conversation())
	assert.False(t, c.Conversation().AIActive)

	patches := fs.patches()
	require.Len(t, patches, 1)
	require.NotNil(t, patches[0].AIActive)
	assert.False(t, *patches[0].AIActive)
	assert.Nil(t, patches[0].Status)
}

func TestToggleAIBackOn(t *testing.T) {
	l, c, _ := lifecycleFixture(t, model.StatusConversing, false)

	require.NoError(t, l.ToggleAI(context.Background()))
	assert.True(t, c.Conversation().AIActive)
}

func TestToggleAIOnEndedConversation(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusEnded, false)

	err := l.ToggleAI(context.Background())
	require.ErrorIs(t, err, ErrConversationEnded)

	// The invalid transition must leave the record exactly as it was and
	// never reach the store.
	assert.Equal(t, model.StatusEnded, c.Conversation().Status)
	assert.False(t, c.Conversation().AIActive)
	assert.Empty(t, fs.patches())
}

func TestToggleAIRollbackOnStoreError(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusConversing, true)
	fs.updateConversationErr = fmt.Errorf("store down")

	err := l.ToggleAI(context.Background())
	require.Error(t, err)
	assert.True(t, c.Conversation().AIActive)
}

func TestEndConversationSinglePatch(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusConversing, true)

	require.NoError(t, l.End(context.Background()))

	conversation := c.Conversation()
	assert.Equal(t, model.StatusEnded, conversation.Status)
	assert.False(t, conversation.AIActive)

	// Status and AI flag travel in one write; no intermediate state exists.
	patches := fs.patches()
	require.Len(t, patches, 1)
	require.NotNil(t, patches[0].Status)
	require.NotNil(t, patches[0].AIActive)
	assert.Equal(t, model.StatusEnded, *patches[0].Status)
	assert.False(t, *patches[0].AIActive)
}

func TestEndAlreadyEnded(t *testing.T) {
	l, _, fs := lifecycleFixture(t, model.StatusEnded, false)

	err := l.End(context.Background())
	require.ErrorIs(t, err, ErrConversationEnded)
	assert.Empty(t, fs.patches())
}

func TestEndRollbackOnStoreError(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusConversing, true)
	fs.updateConversationErr = fmt.Errorf("store down")

	err := l.End(context.Background())
	require.Error(t, err)

	conversation := c.Conversation()
	assert.Equal(t, model.StatusConversing, conversation.Status)
	assert.True(t, conversation.AIActive)
}

func TestEndFromPaused(t *testing.T) {
	l, c, _ := lifecycleFixture(t, model.StatusPaused, false)

	require.NoError(t, l.End(context.Background()))
	assert.Equal(t, model.StatusEnded, c.Conversation().Status)
}

func TestSetOverallFeedbackOnEndedConversation(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusEnded, false)

	fb := model.Feedback{Type: model.FeedbackLike, Text: "resolveu rapido"}
	require.NoError(t, l.SetOverallFeedback(context.Background(), fb))

	require.NotNil(t, c.Conversation().OverallFeedback)
	assert.Equal(t, model.FeedbackLike, c.Conversation().OverallFeedback.Type)

	patches := fs.patches()
	require.Len(t, patches, 1)
	require.NotNil(t, patches[0].OverallFeedback)
}

func TestSetOverallFeedbackRollbackOnStoreError(t *testing.T) {
	l, c, fs := lifecycleFixture(t, model.StatusConversing, true)
	fs.updateConversationErr = fmt.Errorf("store down")

	err := l.SetOverallFeedback(context.Background(), model.Feedback{Type: model.FeedbackDislike})
	require.Error(t, err)
	assert.Nil(t, c.Conversation().OverallFeedback)
}
