// Package realtime provides the push channel that delivers row-level change
// notifications scoped to a single column value, e.g. all message rows of one
// conversation.
package realtime

import (
	"github.com/atendai/livechat-console/internal/model"
)

// Scope selects which row events a subscription receives.
type Scope struct {
	Table        string
	FilterColumn string
	FilterValue  string
}

// Handler consumes a row event. Handlers must not block; the session funnels
// them into its reducer queue.
type Handler func(event model.RowEvent)

// Source is a push-event channel. Subscribe registers handlers for inserts
// and updates within a scope and returns an unsubscribe function. A failed
// subscription is non-fatal to the session, which falls back to
// invalidate-and-reload freshness.
type Source interface {
	Subscribe(scope Scope, onInsert, onUpdate Handler) (func(), error)
}
