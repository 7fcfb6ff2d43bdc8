package websocket

import (
	"encoding/json"

	"github.com/isdelr/ast-secret-be/internal/models"
	"github.com/rs/zerolog/log"
)

// Client to server actions.
const (
	ActionJoin        = "join"
	ActionGetStats    = "getStats"
	ActionLinkClicked = "linkClicked"
)

// Server to client actions.
const (
	ActionStatsUpdate = "statsUpdate"
	ActionNewMessage  = "newMessage"
	ActionNewReaction = "newReaction"
	ActionNewReply    = "newReply"
	ActionError       = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserID extracts the target user id from a client payload, which may be
// a bare JSON string or an object with a userId field.
func (m Message) UserID() string {
	var id string
	if err := json.Unmarshal(m.Payload, &id); err == nil {
		return id
	}
	var obj struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(m.Payload, &obj); err == nil {
		return obj.UserID
	}
	return ""
}

// encode builds an outgoing frame. Payloads are plain structs so a
// marshal failure indicates a programming error; it is logged and an
// empty frame is returned.
func encode(action string, payload interface{}) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket payload")
		return nil
	}
	frame, err := json.Marshal(Message{Action: action, Payload: body})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket frame")
		return nil
	}
	return frame
}

// NewErrorMessage builds an error frame for a single client.
func NewErrorMessage(text string) []byte {
	return encode(ActionError, map[string]string{"error": text})
}

// NewStatsMessage builds a statsUpdate frame.
func NewStatsMessage(stats models.Stats) []byte {
	return encode(ActionStatsUpdate, stats)
}
