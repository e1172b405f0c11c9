package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atendai/livechat-console/internal/model"
)

func TestEventSubject(t *testing.T) {
	subject := EventSubject(model.TableMessages, "conversation_id", "conv-1", model.OpInsert)
	assert.Equal(t, "rows.messages.conversation_id.conv-1.insert", subject)
}

func TestScopeSubject(t *testing.T) {
	subject := ScopeSubject(Scope{
		Table:        model.TableConversations,
		FilterColumn: "contact_id",
		FilterValue:  "contact-1",
	})
	assert.Equal(t, "rows.conversations.contact_id.contact-1.*", subject)
}
