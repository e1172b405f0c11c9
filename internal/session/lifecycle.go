package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// Lifecycle enforces the valid transitions of the loaded conversation:
// CONVERSING with the AI flag either way, PAUSED, and the terminal ENDED.
// PAUSED is set externally by the channel or the AI backend; the controller
// only reacts to it. Every transition flips the cached record first and rolls
// it back if the backing store write fails.
type Lifecycle struct {
	cache  *Cache
	store  store.Store
	logger *logger.Logger
}

// NewLifecycle creates a lifecycle controller over the cache.
func NewLifecycle(cache *Cache, st store.Store, log *logger.Logger) *Lifecycle {
	return &Lifecycle{cache: cache, store: st, logger: log}
}

// ToggleAI flips whether the AI responder may answer in the loaded
// conversation. Invalid on an ended conversation: the state is left
// untouched and the error surfaced, never silently ignored.
func (l *Lifecycle) ToggleAI(ctx context.Context) error {
	current := l.cache.Conversation()
	if current == nil {
		return ErrNoConversation
	}
	if current.Ended() {
		return fmt.Errorf("cannot toggle AI: %w", ErrConversationEnded)
	}

	next := *current
	next.AIActive = !current.AIActive
	prior := l.cache.SetConversation(next)

	updated, err := l.store.UpdateConversation(ctx, next.ID, model.ConversationPatch{
		AIActive: &next.AIActive,
	})
	if err != nil {
		l.cache.RestoreConversation(prior)
		l.logger.Warn("AI toggle rolled back",
			zap.String("conversation_id", next.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to toggle AI: %w", err)
	}

	l.cache.SetConversation(updated)
	metrics.LifecycleTransitionsTotal.WithLabelValues("toggle_ai").Inc()
	return nil
}

// End moves the loaded conversation to its terminal state. Status and the AI
// flag change together: one cache update and one store patch, so no observer
// ever sees ENDED with the AI still active.
func (l *Lifecycle) End(ctx context.Context) error {
	current := l.cache.Conversation()
	if current == nil {
		return ErrNoConversation
	}
	if current.Ended() {
		return fmt.Errorf("cannot end conversation: %w", ErrConversationEnded)
	}

	next := *current
	next.Status = model.StatusEnded
	next.AIActive = false
	prior := l.cache.SetConversation(next)

	ended := model.StatusEnded
	inactive := false
	updated, err := l.store.UpdateConversation(ctx, next.ID, model.ConversationPatch{
		Status:   &ended,
		AIActive: &inactive,
	})
	if err != nil {
		l.cache.RestoreConversation(prior)
		l.logger.Warn("end conversation rolled back",
			zap.String("conversation_id", next.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to end conversation: %w", err)
	}

	l.cache.SetConversation(updated)
	metrics.LifecycleTransitionsTotal.WithLabelValues("end").Inc()
	return nil
}

// SetOverallFeedback attaches conversation-level feedback. Allowed in any
// state including ENDED, since operators rate conversations after closing
// them.
func (l *Lifecycle) SetOverallFeedback(ctx context.Context, fb model.Feedback) error {
	current := l.cache.Conversation()
	if current == nil {
		return ErrNoConversation
	}

	next := *current
	next.OverallFeedback = &fb
	prior := l.cache.SetConversation(next)

	updated, err := l.store.UpdateConversation(ctx, next.ID, model.ConversationPatch{
		OverallFeedback: &fb,
	})
	if err != nil {
		l.cache.RestoreConversation(prior)
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	l.cache.SetConversation(updated)
	return nil
}
