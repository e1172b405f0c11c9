package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atendai/livechat-console/internal/model"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "store.messages.create", Subject(model.TableMessages, "create"))
	assert.Equal(t, "store.conversations.update", Subject(model.TableConversations, "update"))
	assert.Equal(t, "store.contacts.list", Subject(model.TableContacts, "list"))
}
