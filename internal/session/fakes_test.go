package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/internal/realtime"
	"github.com/atendai/livechat-console/internal/store"
)

// fakeStore is an in-memory store.Store with per-operation error injection.
type fakeStore struct {
	mu            sync.Mutex
	contacts      map[string]model.Contact
	conversations []model.Conversation
	messages      map[string][]model.Message
	templates     []model.Template
	usage         map[string]int
	nextID        int

	createMessageErr      error
	updateConversationErr error
	updateMessageErr      error
	listMessagesErr       error

	conversationPatches []model.ConversationPatch
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contacts: make(map[string]model.Contact),
		messages: make(map[string][]model.Message),
		usage:    make(map[string]int),
	}
}

func (f *fakeStore) ListContacts(ctx context.Context, tenantID string, filter model.ContactFilter) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Contact
	for _, c := range f.contacts {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetContact(ctx context.Context, id string) (model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return model.Contact{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) UpdateContact(ctx context.Context, id string, patch model.ContactPatch) (model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return model.Contact{}, store.ErrNotFound
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	f.contacts[id] = c
	return c, nil
}

func (f *fakeStore) ListConversations(ctx context.Context, contactID, tenantID string, filter model.ConversationFilter) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Conversation
	for _, c := range f.conversations {
		if c.ContactID == contactID && c.TenantID == tenantID {
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateConversation(ctx context.Context, id string, patch model.ConversationPatch) (model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateConversationErr != nil {
		return model.Conversation{}, f.updateConversationErr
	}
	f.conversationPatches = append(f.conversationPatches, patch)
	for i := range f.conversations {
		if f.conversations[i].ID != id {
			continue
		}
		if patch.Status != nil {
			f.conversations[i].Status = *patch.Status
		}
		if patch.AIActive != nil {
			f.conversations[i].AIActive = *patch.AIActive
		}
		if patch.LastMessageAt != nil {
			f.conversations[i].LastMessageAt = *patch.LastMessageAt
		}
		if patch.OverallFeedback != nil {
			f.conversations[i].OverallFeedback = patch.OverallFeedback
		}
		return f.conversations[i], nil
	}
	return model.Conversation{}, store.ErrNotFound
}

func (f *fakeStore) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listMessagesErr != nil {
		return nil, f.listMessagesErr
	}
	out := make([]model.Message, len(f.messages[conversationID]))
	copy(out, f.messages[conversationID])
	return out, nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, draft model.MessageDraft) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMessageErr != nil {
		return model.Message{}, f.createMessageErr
	}
	f.nextID++
	m := model.Message{
		ID:             fmt.Sprintf("srv-%d", f.nextID),
		ConversationID: draft.ConversationID,
		Sender:         draft.Sender,
		SenderID:       draft.SenderID,
		Content:        draft.Content,
		CreatedAt:      draft.CreatedAt,
	}
	f.messages[draft.ConversationID] = append(f.messages[draft.ConversationID], m)
	return m, nil
}

func (f *fakeStore) UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateMessageErr != nil {
		return model.Message{}, f.updateMessageErr
	}
	for convID, msgs := range f.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				if patch.Feedback != nil {
					msgs[i].Feedback = patch.Feedback
				}
				f.messages[convID] = msgs
				return msgs[i], nil
			}
		}
	}
	return model.Message{}, store.ErrNotFound
}

func (f *fakeStore) ListTemplates(ctx context.Context, tenantID string) ([]model.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Template, len(f.templates))
	copy(out, f.templates)
	return out, nil
}

func (f *fakeStore) IncrementTemplateUsage(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[id]++
	return nil
}

func (f *fakeStore) patches() []model.ConversationPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ConversationPatch, len(f.conversationPatches))
	copy(out, f.conversationPatches)
	return out
}

// fakeSub is one live subscription on the fake source.
type fakeSub struct {
	scope    realtime.Scope
	onInsert realtime.Handler
	onUpdate realtime.Handler
	closed   bool
}

// fakeSource is an in-memory realtime.Source that delivers events
// synchronously to matching, still-open subscriptions.
type fakeSource struct {
	mu      sync.Mutex
	subs    []*fakeSub
	failAll bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{}
}

func (f *fakeSource) Subscribe(scope realtime.Scope, onInsert, onUpdate realtime.Handler) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, fmt.Errorf("fake subscription refused")
	}
	sub := &fakeSub{scope: scope, onInsert: onInsert, onUpdate: onUpdate}
	f.subs = append(f.subs, sub)
	return func() {
		f.mu.Lock()
		sub.closed = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSource) push(scope realtime.Scope, op model.RowOp, row any) {
	data, err := json.Marshal(row)
	if err != nil {
		panic(err)
	}
	event := model.RowEvent{Table: scope.Table, Op: op, Data: data}

	f.mu.Lock()
	subs := make([]*fakeSub, 0, len(f.subs))
	for _, s := range f.subs {
		if !s.closed && s.scope == scope {
			subs = append(subs, s)
		}
	}
	f.mu.Unlock()

	for _, s := range subs {
		switch op {
		case model.OpInsert:
			s.onInsert(event)
		case model.OpUpdate:
			s.onUpdate(event)
		}
	}
}

func (f *fakeSource) open() []realtime.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []realtime.Scope
	for _, s := range f.subs {
		if !s.closed {
			out = append(out, s.scope)
		}
	}
	return out
}
