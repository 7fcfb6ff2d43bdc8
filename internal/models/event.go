package models

import "time"

// EventType names a lifecycle event pushed to a user's room.
type EventType string

const (
	EventNewMessage  EventType = "newMessage"
	EventNewReaction EventType = "newReaction"
	EventNewReply    EventType = "newReply"
	EventUserExpired EventType = "userExpired" // Internal only, never sent to clients
)

// Event is emitted by the lifecycle services and dispatched to the
// realtime layer.
type Event struct {
	Type      EventType   `json:"type"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewMessagePayload accompanies EventNewMessage.
type NewMessagePayload struct {
	Message      Message `json:"message"`
	MessageCount int     `json:"messageCount"`
}

// ReactionPayload accompanies EventNewReaction.
type ReactionPayload struct {
	MessageID string    `json:"messageId"`
	Reactions Reactions `json:"reactions"`
}

// ReplyPayload accompanies EventNewReply.
type ReplyPayload struct {
	MessageID      string    `json:"messageId"`
	Reply          string    `json:"reply"`
	ReplyTimestamp time.Time `json:"replyTimestamp"`
}

// Stats is the live view of a user's link activity.
type Stats struct {
	LinkClicks    int64 `json:"linkClicks"`
	ActiveReaders int   `json:"activeReaders"`
}
