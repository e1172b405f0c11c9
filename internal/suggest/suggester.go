package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/pkg/metrics"
)

const systemPrompt = "You are assisting a human support agent in a live chat. " +
	"Based on the conversation so far, draft one short, polite reply the agent " +
	"could send next. Answer with the reply text only, in the customer's language."

// historyLimit bounds how much history is sent to the LLM.
const historyLimit = 30

// ErrNoHistory is returned when there is nothing to suggest from.
var ErrNoHistory = errors.New("conversation has no messages")

// Suggestion is a drafted operator reply.
type Suggestion struct {
	Content  string `json:"content"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// Suggester turns the reconciled message list into a drafted reply.
type Suggester struct {
	client Client
}

// NewSuggester creates a suggester over an LLM client.
func NewSuggester(client Client) *Suggester {
	return &Suggester{client: client}
}

// Suggest drafts a reply from the tail of the conversation. Customer
// messages map to the user role; AI and agent messages both map to the
// assistant role since either speaks for the tenant.
func (s *Suggester) Suggest(ctx context.Context, messages []model.Message) (*Suggestion, error) {
	if len(messages) == 0 {
		return nil, ErrNoHistory
	}

	tail := messages
	if len(tail) > historyLimit {
		tail = tail[len(tail)-historyLimit:]
	}

	chat := make([]ChatMessage, 0, len(tail))
	for _, m := range tail {
		role := "assistant"
		if m.Sender == model.SenderCustomer {
			role = "user"
		}
		// Consecutive same-role turns are merged; providers reject runs.
		if n := len(chat); n > 0 && chat[n-1].Role == role {
			chat[n-1].Content += "\n" + m.Content
			continue
		}
		chat = append(chat, ChatMessage{Role: role, Content: m.Content})
	}

	// The transcript must end on a customer turn for the model to answer it.
	if chat[len(chat)-1].Role != "user" {
		chat = append(chat, ChatMessage{
			Role:    "user",
			Content: "(the customer has not replied yet; suggest a follow-up)",
		})
	}

	start := time.Now()
	resp, err := s.client.Complete(ctx, &CompletionRequest{
		System:   systemPrompt,
		Messages: chat,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SuggestionDuration.WithLabelValues(s.client.Name(), status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("suggestion failed: %w", err)
	}

	return &Suggestion{
		Content:  strings.TrimSpace(resp.Content),
		Model:    resp.Model,
		Provider: s.client.Name(),
	}, nil
}
