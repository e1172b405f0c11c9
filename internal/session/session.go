package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/realtime"
	"github.com/atendai/livechat-console/internal/store"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// Session owns one operator's view of the live chat inbox: the selected
// contact, its conversation history, the reconciled message list of the
// active conversation and the derived search and attention state.
//
// Mutations are serialized: the cache applies every operation atomically,
// realtime pushes are funneled through a single reducer goroutine in arrival
// order, and local actions apply their optimistic step before any await. The
// store remains the only shared resource across sessions.
type Session struct {
	tenantID   string
	operatorID string

	store  store.Store
	source realtime.Source
	log    *logger.Logger

	cache     *Cache
	lifecycle *Lifecycle

	mu            sync.Mutex
	epoch         uint64
	conversations []model.Conversation
	unsubMessages func()
	unsubConvs    func()
	attention     *Attention
	query         string
	matchPos      int
	pending       map[string]bool
	lastError     string

	events  chan func()
	updates chan struct{}
	done    chan struct{}
	closed  bool
}

// New creates a session for one operator and starts its reducer loop.
func New(tenantID, operatorID string, st store.Store, src realtime.Source, log *logger.Logger) *Session {
	cache := NewCache()
	s := &Session{
		tenantID:   tenantID,
		operatorID: operatorID,
		store:      st,
		source:     src,
		log: log.With(
			zap.String("tenant_id", tenantID),
			zap.String("operator_id", operatorID),
		),
		cache:     cache,
		lifecycle: NewLifecycle(cache, st, log),
		attention: NewAttention(),
		pending:   make(map[string]bool),
		events:    make(chan func(), 64),
		updates:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

// run is the single-threaded reducer: realtime pushes become cache merges
// applied strictly in arrival order, never concurrently with each other.
func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.events:
			fn()
		case <-s.cache.Updates():
			s.notify()
		}
	}
}

// Close tears down subscriptions and stops the reducer.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.teardownLocked(true)
	s.mu.Unlock()
	close(s.done)
}

// Updates returns a coalescing channel that receives after every observable
// state change; the SSE layer reads it to know when to push a snapshot.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// enqueue hands a realtime event to the reducer. Drops are tolerable: the
// invalidate-and-reload backstop covers missed pushes.
func (s *Session) enqueue(fn func()) {
	select {
	case s.events <- fn:
	case <-s.done:
	default:
		s.log.Warn("reducer queue full, dropping realtime event")
	}
}

func (s *Session) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// teardownLocked cancels realtime interest in the previous selection. Old
// subscriptions are always removed before new ones are established so events
// never leak across conversations.
func (s *Session) teardownLocked(includeConversations bool) {
	if s.unsubMessages != nil {
		s.unsubMessages()
		s.unsubMessages = nil
	}
	if includeConversations && s.unsubConvs != nil {
		s.unsubConvs()
		s.unsubConvs = nil
	}
}

func (s *Session) setPending(action string, v bool) {
	s.mu.Lock()
	if v {
		s.pending[action] = true
	} else {
		delete(s.pending, action)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()
	s.notify()
}

// SelectContact focuses the session on a contact: loads the record, its
// conversation history and the messages of the most recent open
// conversation, then rebuilds realtime subscriptions for the new scope.
func (s *Session) SelectContact(ctx context.Context, contactID string) error {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.teardownLocked(true)
	s.mu.Unlock()

	contact, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("contact %s: %w", contactID, ErrNotFound)
		}
		s.setError(err)
		return err
	}

	conversations, err := s.store.ListConversations(ctx, contactID, s.tenantID, model.ConversationFilter{})
	if err != nil {
		s.setError(err)
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	// At most one non-ended conversation is displayed per contact; pick it.
	var active *model.Conversation
	for i := range conversations {
		if !conversations[i].Ended() {
			c := conversations[i]
			active = &c
			break
		}
	}

	var messages []model.Message
	if active != nil {
		messages, err = s.store.ListMessages(ctx, active.ID)
		if err != nil {
			s.setError(err)
			return fmt.Errorf("failed to load messages: %w", err)
		}
	}

	return s.install(epoch, contact, conversations, active, messages)
}

// SelectConversation switches the displayed conversation within the current
// contact, typically to review an ended one from the history list.
func (s *Session) SelectConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	var selected *model.Conversation
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			c := s.conversations[i]
			selected = &c
			break
		}
	}
	if selected == nil {
		s.mu.Unlock()
		err := fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		s.setError(err)
		return err
	}
	s.epoch++
	epoch := s.epoch
	s.teardownLocked(false)
	conversations := s.conversations
	s.mu.Unlock()

	contact := s.cache.Contact()
	if contact == nil {
		return ErrNoConversation
	}

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("failed to load messages: %w", err)
	}

	return s.install(epoch, *contact, conversations, selected, messages)
}

// install publishes a completed selection load. Loads that finished after
// the operator moved on are discarded.
func (s *Session) install(epoch uint64, contact model.Contact, conversations []model.Conversation, active *model.Conversation, messages []model.Message) error {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return ErrStaleSelection
	}

	s.conversations = conversations
	s.attention.Reset()
	s.query = ""
	s.matchPos = 0
	s.lastError = ""
	s.cache.Load(contact, active, messages)

	if s.unsubConvs == nil {
		s.subscribeConversationsLocked(contact.ID)
	}
	if active != nil {
		s.subscribeMessagesLocked(epoch, active.ID)
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// subscribeMessagesLocked establishes the message push scope for one
// conversation. Failure is non-fatal: freshness degrades to reload-on-action.
func (s *Session) subscribeMessagesLocked(epoch uint64, conversationID string) {
	unsub, err := s.source.Subscribe(realtime.Scope{
		Table:        model.TableMessages,
		FilterColumn: "conversation_id",
		FilterValue:  conversationID,
	}, func(event model.RowEvent) {
		s.enqueue(func() { s.reduceMessageInsert(epoch, event) })
	}, func(event model.RowEvent) {
		s.enqueue(func() { s.reduceMessageUpdate(epoch, event) })
	})
	if err != nil {
		s.log.Warn("message subscription failed, falling back to reload-on-action",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}
	s.unsubMessages = unsub
}

// subscribeConversationsLocked follows the contact's conversation rows. The
// scope outlives conversation switches within the same contact, so the
// reducer keys on the contact rather than the selection epoch.
func (s *Session) subscribeConversationsLocked(contactID string) {
	unsub, err := s.source.Subscribe(realtime.Scope{
		Table:        model.TableConversations,
		FilterColumn: "contact_id",
		FilterValue:  contactID,
	}, func(event model.RowEvent) {
		s.enqueue(func() { s.reduceConversationEvent(contactID, event) })
	}, func(event model.RowEvent) {
		s.enqueue(func() { s.reduceConversationEvent(contactID, event) })
	})
	if err != nil {
		s.log.Warn("conversation subscription failed, falling back to reload-on-action",
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
		return
	}
	s.unsubConvs = unsub
}

func (s *Session) reduceMessageInsert(epoch uint64, event model.RowEvent) {
	if epoch != s.currentEpoch() {
		return
	}
	record, err := event.DecodeMessage()
	if err != nil {
		s.log.Warn("dropping undecodable message event", zap.Error(err))
		return
	}

	conversation := s.cache.Conversation()
	if conversation == nil || conversation.ID != record.ConversationID {
		return
	}

	if s.cache.MergeRealtimeInsert(record) == MergeInserted {
		s.mu.Lock()
		s.attention.OnNewMessage()
		s.mu.Unlock()
	}

	if record.CreatedAt.After(conversation.LastMessageAt) {
		conversation.LastMessageAt = record.CreatedAt
		s.cache.SetConversation(*conversation)
	}
	s.notify()
}

func (s *Session) reduceMessageUpdate(epoch uint64, event model.RowEvent) {
	if epoch != s.currentEpoch() {
		return
	}
	record, err := event.DecodeMessage()
	if err != nil {
		s.log.Warn("dropping undecodable message event", zap.Error(err))
		return
	}
	s.cache.MergeRealtimeUpdate(record)
}

// reduceConversationEvent merges an externally pushed conversation row:
// status handoffs to PAUSED, AI flips by another operator, feedback saved
// elsewhere. The history list and, when displayed, the cached record follow.
func (s *Session) reduceConversationEvent(contactID string, event model.RowEvent) {
	if contact := s.cache.Contact(); contact == nil || contact.ID != contactID {
		return
	}
	record, err := event.DecodeConversation()
	if err != nil {
		s.log.Warn("dropping undecodable conversation event", zap.Error(err))
		return
	}

	s.mu.Lock()
	replaced := false
	for i := range s.conversations {
		if s.conversations[i].ID == record.ID {
			s.conversations[i] = record
			replaced = true
			break
		}
	}
	if !replaced && event.Op == model.OpInsert {
		s.conversations = append([]model.Conversation{record}, s.conversations...)
	}
	s.mu.Unlock()

	if current := s.cache.Conversation(); current != nil && current.ID == record.ID {
		s.cache.SetConversation(record)
	}
	s.notify()
}

// SendMessage applies the operator's message optimistically, issues the
// store write and reconciles. On failure the optimistic entry is rolled back
// and the error surfaced; the caller still holds the draft text and may
// re-issue the send.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	conversation := s.cache.Conversation()
	if conversation == nil {
		return ErrNoConversation
	}
	if conversation.Ended() {
		return fmt.Errorf("cannot send message: %w", ErrConversationEnded)
	}

	operatorID := s.operatorID
	draft := model.MessageDraft{
		ConversationID: conversation.ID,
		TenantID:       s.tenantID,
		Sender:         model.SenderAgent,
		SenderID:       &operatorID,
		Content:        text,
		CreatedAt:      time.Now(),
	}

	localID, err := s.cache.ApplyOptimistic(conversation.ID, draft)
	if err != nil {
		return err
	}
	metrics.OptimisticSendsTotal.Inc()

	s.mu.Lock()
	s.attention.JumpToLatest()
	s.mu.Unlock()

	s.setPending("send", true)
	defer s.setPending("send", false)

	created, err := s.store.CreateMessage(ctx, draft)
	if err != nil {
		s.cache.Rollback(localID)
		err = fmt.Errorf("failed to send message: %w", err)
		s.setError(err)
		return err
	}

	s.cache.Confirm(localID, created)
	if created.CreatedAt.After(conversation.LastMessageAt) {
		conversation.LastMessageAt = created.CreatedAt
		s.cache.SetConversation(*conversation)
	}
	s.setError(nil)

	s.refreshMessages(ctx, conversation.ID)
	return nil
}

// refreshMessages is the eventual-consistency backstop: after every mutating
// action the message list is re-read so a missed realtime push cannot leave
// the view stale.
func (s *Session) refreshMessages(ctx context.Context, conversationID string) {
	s.cache.Invalidate(ScopeMessages)
	epoch := s.currentEpoch()

	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		s.log.Warn("message reload failed, cache stays stale",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return
	}
	if epoch != s.currentEpoch() {
		return
	}
	s.cache.ReconcileMessages(conversationID, messages)
}

// refreshConversations re-reads the contact's conversation history after a
// lifecycle mutation.
func (s *Session) refreshConversations(ctx context.Context) {
	contact := s.cache.Contact()
	if contact == nil {
		return
	}
	s.cache.Invalidate(ScopeConversations)
	epoch := s.currentEpoch()

	conversations, err := s.store.ListConversations(ctx, contact.ID, s.tenantID, model.ConversationFilter{})
	if err != nil {
		s.log.Warn("conversation reload failed, cache stays stale", zap.Error(err))
		return
	}

	s.mu.Lock()
	if epoch == s.epoch {
		s.conversations = conversations
	}
	s.mu.Unlock()
	s.notify()
}

// ToggleAI flips the AI responder for the loaded conversation.
func (s *Session) ToggleAI(ctx context.Context) error {
	s.setPending("toggle_ai", true)
	defer s.setPending("toggle_ai", false)

	if err := s.lifecycle.ToggleAI(ctx); err != nil {
		s.setError(err)
		return err
	}
	s.setError(nil)
	s.refreshConversations(ctx)
	return nil
}

// EndConversation moves the loaded conversation to ENDED.
func (s *Session) EndConversation(ctx context.Context) error {
	s.setPending("end", true)
	defer s.setPending("end", false)

	if err := s.lifecycle.End(ctx); err != nil {
		s.setError(err)
		return err
	}
	s.setError(nil)
	s.refreshConversations(ctx)
	return nil
}

// SetConversationFeedback rates the whole conversation.
func (s *Session) SetConversationFeedback(ctx context.Context, fb model.Feedback) error {
	if err := s.lifecycle.SetOverallFeedback(ctx, fb); err != nil {
		s.setError(err)
		return err
	}
	s.setError(nil)
	return nil
}

// SetMessageFeedback attaches feedback to a confirmed message, optimistically
// first, restoring the prior record if the store write fails.
func (s *Session) SetMessageFeedback(ctx context.Context, messageID string, fb model.Feedback) error {
	var prior *model.Message
	for _, e := range s.cache.Messages() {
		if !e.Pending && e.Message.ID == messageID {
			m := e.Message
			prior = &m
			break
		}
	}
	if prior == nil {
		return fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}

	optimistic := *prior
	optimistic.Feedback = &fb
	s.cache.MergeRealtimeUpdate(optimistic)

	updated, err := s.store.UpdateMessage(ctx, messageID, model.MessagePatch{Feedback: &fb})
	if err != nil {
		s.cache.MergeRealtimeUpdate(*prior)
		err = fmt.Errorf("failed to save feedback: %w", err)
		s.setError(err)
		return err
	}

	s.cache.MergeRealtimeUpdate(updated)
	s.setError(nil)
	return nil
}

// UseTemplate sends a quick-reply template as the operator's message and
// bumps its usage counter.
func (s *Session) UseTemplate(ctx context.Context, templateID string) error {
	templates, err := s.store.ListTemplates(ctx, s.tenantID)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	var tpl *model.Template
	for i := range templates {
		if templates[i].ID == templateID {
			tpl = &templates[i]
			break
		}
	}
	if tpl == nil {
		return fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}

	if err := s.SendMessage(ctx, tpl.Content); err != nil {
		return err
	}

	if err := s.store.IncrementTemplateUsage(ctx, templateID); err != nil {
		s.log.Warn("failed to bump template usage",
			zap.String("template_id", templateID),
			zap.Error(err),
		)
	}
	return nil
}

// Search sets the active query; the match cursor resets to the first match.
func (s *Session) Search(query string) {
	s.mu.Lock()
	s.query = query
	s.matchPos = 0
	s.mu.Unlock()
	s.notify()
}

// ClearSearch discards the query and match cursor.
func (s *Session) ClearSearch() {
	s.Search("")
}

// NextMatch advances the match cursor. Clamped at the last match, no
// wraparound.
func (s *Session) NextMatch() {
	s.moveMatch(1)
}

// PreviousMatch moves the match cursor back. Clamped at the first match.
func (s *Session) PreviousMatch() {
	s.moveMatch(-1)
}

func (s *Session) moveMatch(delta int) {
	entries := s.cache.Messages()
	s.mu.Lock()
	matches := computeMatches(entries, s.query)
	s.matchPos = clampMatchPos(s.matchPos+delta, len(matches))
	s.mu.Unlock()
	s.notify()
}

// ReportScroll records the viewport distance from the list bottom.
func (s *Session) ReportScroll(distanceFromBottom float64) {
	s.mu.Lock()
	s.attention.ReportScroll(distanceFromBottom)
	s.mu.Unlock()
	s.notify()
}

// ScrollToLatest jumps the viewport back to the live tail.
func (s *Session) ScrollToLatest() {
	s.mu.Lock()
	s.attention.JumpToLatest()
	s.mu.Unlock()
	s.notify()
}
