package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendai/livechat-console/internal/model"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return testBase.Add(time.Duration(seconds) * time.Second)
}

func msg(id, conversationID string, sender model.Sender, content string, t time.Time) model.Message {
	return model.Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      t,
	}
}

func loadedCache(t *testing.T, messages ...model.Message) *Cache {
	t.Helper()
	c := NewCache()
	c.Load(
		model.Contact{ID: "contact-1", TenantID: "tenant-1", Name: "Maria"},
		&model.Conversation{
			ID:        "conv-1",
			ContactID: "contact-1",
			TenantID:  "tenant-1",
			Status:    model.StatusConversing,
			AIActive:  true,
		},
		messages,
	)
	return c
}

func agentDraft(content string, t time.Time) model.MessageDraft {
	operator := "op-1"
	return model.MessageDraft{
		ConversationID: "conv-1",
		TenantID:       "tenant-1",
		Sender:         model.SenderAgent,
		SenderID:       &operator,
		Content:        content,
		CreatedAt:      t,
	}
}

func contents(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message.Content
	}
	return out
}

func TestApplyOptimisticRejectsEmptyContent(t *testing.T) {
	c := loadedCache(t)

	_, err := c.ApplyOptimistic("conv-1", agentDraft("", at(0)))
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, c.Messages())
}

func TestApplyOptimisticRejectsUnloadedConversation(t *testing.T) {
	c := loadedCache(t)

	_, err := c.ApplyOptimistic("conv-other", agentDraft("hello", at(0)))
	require.ErrorIs(t, err, ErrWrongConversation)
	assert.Empty(t, c.Messages())
}

func TestApplyOptimisticAppendsAtTailAndBumpsVersion(t *testing.T) {
	c := loadedCache(t,
		msg("m1", "conv-1", model.SenderCustomer, "hi", at(1)),
		msg("m2", "conv-1", model.SenderAI, "bye", at(3)),
	)
	before := c.Version()

	// Local clock lags the last message; the send still renders last.
	localID, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(2)))
	require.NoError(t, err)
	require.NotEmpty(t, localID)

	entries := c.Messages()
	require.Equal(t, []string{"hi", "bye", "ok"}, contents(entries))
	assert.True(t, entries[2].Pending)
	assert.Equal(t, localID, entries[2].LocalID)
	assert.Greater(t, c.Version(), before)
}

func TestConfirmReplacesInPlace(t *testing.T) {
	c := loadedCache(t,
		msg("m1", "conv-1", model.SenderCustomer, "hi", at(1)),
		msg("m2", "conv-1", model.SenderAI, "bye", at(3)),
	)

	localID, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(2)))
	require.NoError(t, err)

	server := msg("m3", "conv-1", model.SenderAgent, "ok", at(4))
	require.True(t, c.Confirm(localID, server))

	entries := c.Messages()
	require.Equal(t, []string{"hi", "bye", "ok"}, contents(entries))
	assert.False(t, entries[2].Pending)
	assert.Equal(t, "m3", entries[2].Message.ID)
}

func TestConfirmAfterEchoIsNoOp(t *testing.T) {
	c := loadedCache(t)

	localID, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(1)))
	require.NoError(t, err)

	pushed := msg("m9", "conv-1", model.SenderAgent, "ok", at(2))
	require.Equal(t, MergeEcho, c.MergeRealtimeInsert(pushed))

	// The push already reconciled the entry; the late confirmation must
	// not duplicate it.
	assert.False(t, c.Confirm(localID, pushed))
	entries := c.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m9", entries[0].Message.ID)
}

func TestRollbackRestoresPriorList(t *testing.T) {
	c := loadedCache(t,
		msg("m1", "conv-1", model.SenderCustomer, "hi", at(1)),
		msg("m2", "conv-1", model.SenderAI, "bye", at(3)),
	)
	before := c.Messages()

	localID, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(5)))
	require.NoError(t, err)
	require.True(t, c.Rollback(localID))

	assert.Equal(t, before, c.Messages())
}

func TestMergeRealtimeInsertDeduplicatesOptimisticEcho(t *testing.T) {
	c := loadedCache(t)

	_, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(1)))
	require.NoError(t, err)

	result := c.MergeRealtimeInsert(msg("m1", "conv-1", model.SenderAgent, "ok", at(2)))
	assert.Equal(t, MergeEcho, result)

	entries := c.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].Message.ID)
	assert.False(t, entries[0].Pending)
}

func TestMergeRealtimeInsertDropsDuplicateID(t *testing.T) {
	c := loadedCache(t, msg("m1", "conv-1", model.SenderCustomer, "oi", at(1)))

	result := c.MergeRealtimeInsert(msg("m1", "conv-1", model.SenderCustomer, "oi", at(1)))
	assert.Equal(t, MergeDuplicate, result)
	assert.Len(t, c.Messages(), 1)
}

func TestMergeRealtimeInsertKeepsTimestampOrder(t *testing.T) {
	c := loadedCache(t,
		msg("m1", "conv-1", model.SenderCustomer, "first", at(1)),
		msg("m3", "conv-1", model.SenderAI, "third", at(5)),
	)

	// Out-of-order push lands at its sorted position, not the tail.
	result := c.MergeRealtimeInsert(msg("m2", "conv-1", model.SenderCustomer, "second", at(3)))
	require.Equal(t, MergeInserted, result)

	entries := c.Messages()
	require.Equal(t, []string{"first", "second", "third"}, contents(entries))
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Message.CreatedAt.Before(entries[i-1].Message.CreatedAt))
	}
}

func TestMergeRealtimeInsertDistinctContentNotReconciled(t *testing.T) {
	c := loadedCache(t)

	_, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(1)))
	require.NoError(t, err)

	// Same sender, different content: a genuinely distinct message.
	result := c.MergeRealtimeInsert(msg("m1", "conv-1", model.SenderAgent, "something else", at(2)))
	assert.Equal(t, MergeInserted, result)
	assert.Len(t, c.Messages(), 2)
}

func TestMergeRealtimeUpdateReplacesInPlace(t *testing.T) {
	c := loadedCache(t, msg("m1", "conv-1", model.SenderAI, "resposta", at(1)))

	updated := msg("m1", "conv-1", model.SenderAI, "resposta", at(1))
	updated.Feedback = &model.Feedback{Type: model.FeedbackLike}
	c.MergeRealtimeUpdate(updated)

	entries := c.Messages()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Message.Feedback)
	assert.Equal(t, model.FeedbackLike, entries[0].Message.Feedback.Type)
}

func TestMergeRealtimeUpdateDropsUnknownRow(t *testing.T) {
	c := loadedCache(t, msg("m1", "conv-1", model.SenderAI, "resposta", at(1)))
	before := c.Version()

	c.MergeRealtimeUpdate(msg("m-unknown", "conv-1", model.SenderAI, "stale", at(9)))

	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, before, c.Version())
}

func TestReconcileMessagesKeepsUnmatchedPending(t *testing.T) {
	c := loadedCache(t, msg("m1", "conv-1", model.SenderCustomer, "oi", at(1)))

	localID, err := c.ApplyOptimistic("conv-1", agentDraft("em aberto", at(4)))
	require.NoError(t, err)

	fresh := []model.Message{
		msg("m1", "conv-1", model.SenderCustomer, "oi", at(1)),
		msg("m2", "conv-1", model.SenderAI, "tudo bem?", at(2)),
	}
	c.Invalidate(ScopeMessages)
	c.ReconcileMessages("conv-1", fresh)

	entries := c.Messages()
	require.Equal(t, []string{"oi", "tudo bem?", "em aberto"}, contents(entries))
	assert.True(t, entries[2].Pending)
	assert.Equal(t, localID, entries[2].LocalID)
	assert.False(t, c.Stale(ScopeMessages))
}

func TestReconcileMessagesDropsPendingAlreadyInRead(t *testing.T) {
	c := loadedCache(t)

	_, err := c.ApplyOptimistic("conv-1", agentDraft("ok", at(1)))
	require.NoError(t, err)

	fresh := []model.Message{msg("m1", "conv-1", model.SenderAgent, "ok", at(2))}
	c.ReconcileMessages("conv-1", fresh)

	entries := c.Messages()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
}

func TestInvalidateMarksScopeStale(t *testing.T) {
	c := loadedCache(t)

	assert.False(t, c.Stale(ScopeMessages))
	c.Invalidate(ScopeMessages)
	assert.True(t, c.Stale(ScopeMessages))
	assert.False(t, c.Stale(ScopeConversations))
}
