package websocket

import (
	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Dispatcher drains the lifecycle event outbox and forwards each event
// to the hub.
type Dispatcher struct {
	hub                 *Hub
	events              <-chan models.Event
	resetClicksOnExpiry bool
	done                chan struct{}
}

// NewDispatcher creates a dispatcher reading from events. When
// resetClicksOnExpiry is set, a user's click counter is dropped together
// with the user.
func NewDispatcher(hub *Hub, events <-chan models.Event, resetClicksOnExpiry bool) *Dispatcher {
	return &Dispatcher{
		hub:                 hub,
		events:              events,
		resetClicksOnExpiry: resetClicksOnExpiry,
		done:                make(chan struct{}),
	}
}

// Run forwards events until the outbox is closed.
func (d *Dispatcher) Run() {
	log.Info().Msg("Starting realtime event dispatcher...")
	defer close(d.done)
	for event := range d.events {
		d.Dispatch(event)
	}
	log.Info().Msg("Stopping realtime event dispatcher.")
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

// Dispatch forwards a single event.
func (d *Dispatcher) Dispatch(event models.Event) {
	switch p := event.Payload.(type) {
	case models.NewMessagePayload:
		d.hub.PublishNewMessage(event.UserID, p.Message, p.MessageCount)
	case models.ReactionPayload:
		d.hub.PublishReaction(event.UserID, p.MessageID, p.Reactions)
	case models.ReplyPayload:
		d.hub.PublishReply(event.UserID, p.MessageID, p.Reply, p.ReplyTimestamp)
	default:
		if event.Type == models.EventUserExpired {
			if d.resetClicksOnExpiry {
				d.hub.ForgetClicks(event.UserID)
			}
			return
		}
		log.Warn().Str("event_type", string(event.Type)).Msg("Dropping event with unexpected payload")
	}
}
