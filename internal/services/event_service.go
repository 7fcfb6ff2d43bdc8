package services

import (
	"sync"

	"github.com/isdelr/ast-secret-be/internal/clock"
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultOutboxSize is the number of undelivered events buffered before
// new ones are dropped.
const DefaultOutboxSize = 256

// EventServiceProvider defines the interface the lifecycle services use
// to announce changes. Emit never blocks.
type EventServiceProvider interface {
	Emit(event models.Event)
}

// EventService is a bounded outbox. Lifecycle services write to it and a
// single dispatcher drains Events().
type EventService struct {
	clock  clock.Clock
	outbox chan models.Event

	mu     sync.RWMutex
	closed bool
}

// NewEventService creates an outbox holding up to size pending events.
func NewEventService(clk clock.Clock, size int) *EventService {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &EventService{
		clock:  clk,
		outbox: make(chan models.Event, size),
	}
}

// Emit queues an event for dispatch. Delivery is best effort: when the
// outbox is full or closed the event is dropped.
func (s *EventService) Emit(event models.Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.clock.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.outbox <- event:
	default:
		log.Warn().Str("event_type", string(event.Type)).Str("user_id", event.UserID).Msg("Event outbox full, dropping event")
	}
}

// Events returns the channel the dispatcher reads from. It is closed by Close.
func (s *EventService) Events() <-chan models.Event {
	return s.outbox
}

// Close stops accepting events and closes the outbox channel.
func (s *EventService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.outbox)
	}
}
