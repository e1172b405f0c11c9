package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/atendai/livechat-console/internal/bus"
	"github.com/atendai/livechat-console/internal/model"
	"github.com/atendai/livechat-console/pkg/logger"
	"github.com/atendai/livechat-console/pkg/metrics"
)

// SubjectPrefix is the prefix for all row-event subjects published by the
// data service.
const SubjectPrefix = "rows"

// EventSubject returns the subject a row event is published on.
func EventSubject(table, filterColumn, filterValue string, op model.RowOp) string {
	return fmt.Sprintf("%s.%s.%s.%s.%s", SubjectPrefix, table, filterColumn, filterValue, op)
}

// ScopeSubject returns the wildcard subject covering all ops in a scope.
func ScopeSubject(scope Scope) string {
	return fmt.Sprintf("%s.%s.%s.%s.*", SubjectPrefix, scope.Table, scope.FilterColumn, scope.FilterValue)
}

// NATSSource delivers row events over plain NATS subscriptions.
type NATSSource struct {
	bus    *bus.Client
	logger *logger.Logger
}

// NewNATSSource creates a realtime source on an established bus connection.
func NewNATSSource(b *bus.Client, log *logger.Logger) *NATSSource {
	return &NATSSource{bus: b, logger: log}
}

// Subscribe registers for row events within a scope. The returned cancel
// function drains and removes the subscription; callers invoke it before
// establishing a subscription for a new scope so events never leak across
// selections.
func (s *NATSSource) Subscribe(scope Scope, onInsert, onUpdate Handler) (func(), error) {
	subject := ScopeSubject(scope)

	sub, err := s.bus.Conn().Subscribe(subject, func(msg *nats.Msg) {
		var event model.RowEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Warn("dropping malformed row event",
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}

		metrics.RealtimeEventsTotal.WithLabelValues(event.Table, string(event.Op)).Inc()

		switch event.Op {
		case model.OpInsert:
			if onInsert != nil {
				onInsert(event)
			}
		case model.OpUpdate:
			if onUpdate != nil {
				onUpdate(event)
			}
		default:
			s.logger.Warn("dropping row event with unknown op",
				zap.String("op", string(event.Op)),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return func() {
		if err := sub.Drain(); err != nil {
			s.logger.Warn("failed to drain subscription",
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}, nil
}
