// Package store holds the keyed tables behind the user and message
// lifecycles. It carries no business logic: every call is atomic for a
// single key and deleting an absent key is a no-op.
package store

import "github.com/isdelr/ast-secret-be/internal/models"

// UserStore keeps users by id.
type UserStore interface {
	GetUser(id string) (models.User, bool, error)
	SetUser(user models.User) error
	DeleteUser(id string) error
	// ScanUsers calls fn for every user in insertion order until fn
	// returns false.
	ScanUsers(fn func(models.User) bool) error
}

// MessageStore keeps each user's newest-first message sequence.
type MessageStore interface {
	GetMessages(userID string) ([]models.Message, bool, error)
	SetMessages(userID string, messages []models.Message) error
	DeleteMessages(userID string) error
}

// ClickStore counts link clicks per user. It lives beside the user
// tables and is not touched by expiry unless the caller asks for it.
type ClickStore interface {
	IncrementClicks(userID string) (int64, error)
	Clicks(userID string) (int64, error)
	ResetClicks(userID string) error
}

// Store is the full storage surface used by the services.
type Store interface {
	UserStore
	MessageStore
}
