package interfaces

import (
	"context"
	"errors"
)

// ErrEventServiceClosed is returned by Publish after Close
var ErrEventServiceClosed = errors.New("event service closed")

// EventType represents different event types in the system
type EventType string

const (
	// EventDocumentsChanged is published by the watcher when a supported file
	// is created, modified, removed or renamed.
	// Payload: map with "path", "op".
	EventDocumentsChanged EventType = "documents_changed"

	// EventIngestionStarted is published when a run passes the single-flight guard.
	// Payload: map with "trigger".
	EventIngestionStarted EventType = "ingestion_started"

	// EventIngestionCompleted is published for success and no_documents outcomes.
	// Payload: models.IngestResult
	EventIngestionCompleted EventType = "ingestion_completed"

	// EventIngestionFailed is published when a run fails.
	// Payload: models.IngestResult
	EventIngestionFailed EventType = "ingestion_failed"
)

// AllEventTypes lists every event type published by the service
var AllEventTypes = []EventType{
	EventDocumentsChanged,
	EventIngestionStarted,
	EventIngestionCompleted,
	EventIngestionFailed,
}

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService fans ingestion and watcher events out to in-process handlers
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish hands event to every handler of its type without waiting.
	// Handlers outlive the publisher's context cancellation.
	Publish(ctx context.Context, event Event) error

	// Close rejects further events and waits for in-flight handlers
	Close() error
}
