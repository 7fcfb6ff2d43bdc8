package models

import "time"

// DefaultAvatar is the placeholder avatar handed to every new profile.
const DefaultAvatar = "/placeholder.svg?height=80&width=80"

// User represents an ephemeral profile that receives anonymous messages.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	UsePin       bool      `json:"usePin"`
	IsPublic     bool      `json:"isPublic"`
	MessageCount int       `json:"messageCount"` // Derived from the message collection on read
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Link         string    `json:"link"`
}

// IsExpired reports whether the profile is logically gone at now.
func (u User) IsExpired(now time.Time) bool {
	return now.After(u.ExpiresAt)
}
