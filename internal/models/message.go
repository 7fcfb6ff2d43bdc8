package models

import (
	"fmt"
	"time"
)

// ReactionKind is one of the fixed reactions a message owner can add.
type ReactionKind string

const (
	ReactionHeart ReactionKind = "heart"
	ReactionFire  ReactionKind = "fire"
	ReactionLaugh ReactionKind = "laugh"
)

// ParseReactionKind validates a client supplied reaction name. Names
// are matched exactly.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch k := ReactionKind(s); k {
	case ReactionHeart, ReactionFire, ReactionLaugh:
		return k, nil
	default:
		return "", fmt.Errorf("unknown reaction type %q", s)
	}
}

// Reactions holds one counter per ReactionKind.
type Reactions struct {
	Heart int `json:"heart"`
	Fire  int `json:"fire"`
	Laugh int `json:"laugh"`
}

// Increment bumps the counter for kind. Unknown kinds are rejected and
// leave every counter untouched.
func (r *Reactions) Increment(kind ReactionKind) error {
	switch kind {
	case ReactionHeart:
		r.Heart++
	case ReactionFire:
		r.Fire++
	case ReactionLaugh:
		r.Laugh++
	default:
		return fmt.Errorf("unknown reaction type %q", kind)
	}
	return nil
}

// Message is a single anonymous message left on a user's profile.
type Message struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	IsPublic       bool       `json:"isPublic"`
	Timestamp      time.Time  `json:"timestamp"`
	Reactions      Reactions  `json:"reactions"`
	IsRead         bool       `json:"isRead"`
	Reply          string     `json:"reply,omitempty"`
	ReplyTimestamp *time.Time `json:"replyTimestamp,omitempty"`
}

// PagedMessages is one page of a user's newest-first message list.
type PagedMessages struct {
	Data          []Message `json:"data"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
	TotalMessages int       `json:"totalMessages"`
	HasMore       bool      `json:"hasMore"`
}
