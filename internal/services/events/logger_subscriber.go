package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs ingestion and
// watcher events. Watch-triggered runs have no caller, so this is where
// their outcome is recorded.
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		switch payload := event.Payload.(type) {
		case models.IngestResult:
			logEvent := logger.Info()
			if payload.Status == models.IngestFailure {
				logEvent = logger.Error().Err(payload.Err)
			}
			logEvent.
				Str("event_type", string(event.Type)).
				Str("status", string(payload.Status)).
				Int("count", payload.Count).
				Int("chunks", payload.Chunks).
				Dur("duration", payload.Duration).
				Str("detail", payload.Detail).
				Msg("Ingestion finished")

		case map[string]interface{}:
			logEvent := logger.Debug().Str("event_type", string(event.Type))
			for _, key := range []string{"path", "op", "trigger"} {
				if v, ok := payload[key].(string); ok && v != "" {
					logEvent = logEvent.Str(key, v)
				}
			}
			logEvent.Msg("Event published")

		default:
			logger.Debug().
				Str("event_type", string(event.Type)).
				Msg("Event published")
		}

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	for _, eventType := range interfaces.AllEventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Debug().
		Int("event_type_count", len(interfaces.AllEventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
