package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
)

// Service delivers each published event to the handlers registered for its
// type, one goroutine per handler.
type Service struct {
	logger arbor.ILogger

	mu       sync.RWMutex
	handlers map[interfaces.EventType][]interfaces.EventHandler
	closed   bool

	inflight sync.WaitGroup
}

var _ interfaces.EventService = (*Service)(nil)

// NewService creates an event service with no handlers
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger:   logger,
		handlers: make(map[interfaces.EventType][]interfaces.EventHandler),
	}
}

// Subscribe adds handler for eventType
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for event type %s", eventType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return interfaces.ErrEventServiceClosed
	}
	s.handlers[eventType] = append(s.handlers[eventType], handler)
	return nil
}

// Publish starts one delivery per handler and returns. Deliveries run on a
// context detached from ctx so a finished HTTP request does not cut them off.
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return interfaces.ErrEventServiceClosed
	}

	deliverCtx := context.WithoutCancel(ctx)
	for _, handler := range s.handlers[event.Type] {
		s.inflight.Add(1)
		common.SafeGo(s.logger, "event-"+string(event.Type), s.inflight.Done, func() {
			if err := handler(deliverCtx, event); err != nil {
				s.logger.Warn().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		})
	}
	return nil
}

// Close stops accepting events and blocks until every started delivery ends
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	s.handlers = nil
	s.mu.Unlock()

	s.inflight.Wait()
	return nil
}

func (s *Service) handlerCount(eventType interfaces.EventType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers[eventType])
}
