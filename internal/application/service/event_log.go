package service

import (
	"context"

	"github.com/garyjia/invoice-studio/internal/application/dispatcher"
	"github.com/garyjia/invoice-studio/internal/domain/event"
)

// EventLogHandler names the handler registered by SubscribeEventLog
const EventLogHandler = "event-log"

// SubscribeEventLog logs every session event at info level
func SubscribeEventLog(d dispatcher.Dispatcher, logger Logger) {
	handler := func(ctx context.Context, evt *event.Event) error {
		keysAndValues := []interface{}{
			"event_id", evt.ID,
			"event_type", evt.Type.String(),
			"session_id", evt.SessionID,
		}
		for _, key := range []string{"section", "format", "file_name", "reason", "error"} {
			if value := evt.GetPayloadString(key); value != "" {
				keysAndValues = append(keysAndValues, key, value)
			}
		}
		logger.Info("Session event", keysAndValues...)
		return nil
	}

	for _, eventType := range event.AllTypes() {
		d.SubscribeNamed(eventType, EventLogHandler, handler)
	}
}

// UnsubscribeEventLog detaches the event log from every event type
func UnsubscribeEventLog(d dispatcher.Dispatcher) {
	for _, eventType := range event.AllTypes() {
		d.Unsubscribe(eventType, EventLogHandler)
	}
}

// HandlerCount returns how many handlers are registered across all event types
func HandlerCount(d dispatcher.Dispatcher) int {
	count := 0
	for _, eventType := range event.AllTypes() {
		count += len(d.ListHandlers(eventType))
	}
	return count
}
